// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Thermoquad/scorpion/internal/testutils"
	"github.com/Thermoquad/scorpion/pkg/scorpion"
	"github.com/Thermoquad/scorpion/pkg/transcript"
	"github.com/stretchr/testify/require"
)

func testDriverOptions(port scorpion.Port) []scorpion.Option {
	return []scorpion.Option{
		scorpion.WithOpener(func(string, int) (scorpion.Port, error) { return port, nil }),
		scorpion.WithSettleDelay(0),
		scorpion.WithReadTimeout(20 * time.Millisecond),
	}
}

// newTestSession returns a session connected to an echoing mock instrument
// reporting firmware 1.02.
func newTestSession(t *testing.T, port *testutils.PortMock, opts ...scorpion.Option) *session {
	t.Helper()
	port.Echo = true
	port.Reply("V", "V1.02")

	s := &session{target: "mock", info: "Mock", stats: scorpion.NewStatistics()}
	opts = append(append(testDriverOptions(port), scorpion.WithStatistics(s.stats)), opts...)
	s.driver = scorpion.NewDriver(opts...)
	require.NoError(t, s.driver.Open(s.target))
	t.Cleanup(s.Close)
	return s
}

// writeTranscript records run against a scripted mock instrument and
// returns the transcript path.
func writeTranscript(t *testing.T, script func(*testutils.PortMock), run func(*scorpion.Driver)) string {
	t.Helper()
	port := testutils.NewPortMock()
	port.Echo = true
	port.Reply("V", "V1.02")
	script(port)

	path := filepath.Join(t.TempDir(), "session.cbor")
	f, err := os.Create(path)
	require.NoError(t, err)

	d := scorpion.NewDriver(testDriverOptions(transcript.NewRecorder(port, f))...)
	require.NoError(t, d.Open("mock"))
	run(d)
	require.NoError(t, d.Close())
	return path
}
