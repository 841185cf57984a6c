// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Thermoquad/scorpion/internal/testutils"
	"github.com/Thermoquad/scorpion/pkg/scorpion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI with args against a recorded transcript.
func execute(t *testing.T, replay string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	t.Cleanup(func() { rootCmd.SetOut(nil) })

	base := []string{"--replay", replay, "--settle-delay", "0", "--read-timeout", "50ms", "--log-level", "error"}
	rootCmd.SetArgs(append(args, base...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands_Replay(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		replay := writeTranscript(t,
			func(p *testutils.PortMock) { p.Reply("?", "4") },
			func(d *scorpion.Driver) { d.Status() },
		)

		out, err := execute(t, replay, "status")
		require.NoError(t, err)
		assert.Equal(t, "Status: BUSY - motion in progress\n", out)
	})

	t.Run("status error", func(t *testing.T) {
		replay := writeTranscript(t,
			func(p *testutils.PortMock) {
				p.Reply("?", "2")
				p.Reply("E", "E9")
			},
			func(d *scorpion.Driver) {
				d.Status()
				d.ErrorCode()
			},
		)

		out, err := execute(t, replay, "status")
		require.Error(t, err)
		assert.Equal(t, 1, ExitCode(err))
		assert.Contains(t, out, "CONVEYER_JAM")
	})

	t.Run("get", func(t *testing.T) {
		replay := writeTranscript(t,
			func(p *testutils.PortMock) { p.Reply("P1", "P1=42") },
			func(d *scorpion.Driver) { d.TransferPosition() },
		)

		out, err := execute(t, replay, "get", "transfer")
		require.NoError(t, err)
		assert.Equal(t, "42\n", out)
	})

	t.Run("run rejected", func(t *testing.T) {
		replay := writeTranscript(t,
			func(p *testutils.PortMock) {
				p.Reply("G", "err")
				p.Reply("E", "E7")
			},
			func(d *scorpion.Driver) {
				d.GetPlate()
				d.ErrorCode()
			},
		)

		out, err := execute(t, replay, "run", "get")
		require.ErrorIs(t, err, scorpion.ErrRequest)
		assert.Contains(t, out, "ARM_HOME")
	})

	t.Run("ping", func(t *testing.T) {
		replay := writeTranscript(t,
			func(*testutils.PortMock) {},
			func(d *scorpion.Driver) {
				d.Version()
				d.Version()
			},
		)

		out, err := execute(t, replay, "ping", "--count", "2", "--delay", "0s")
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(out, "firmware 1.02"))
		assert.Contains(t, out, "2 pings sent, 2 answered, 0% loss")

		out, err = execute(t, replay, "ping", "--count", "3", "--delay", "0s")
		require.ErrorIs(t, err, errPingLoss)
		assert.Equal(t, 1, ExitCode(err))
		assert.Contains(t, out, "FAILED")
	})

	t.Run("transcript", func(t *testing.T) {
		replay := writeTranscript(t,
			func(p *testutils.PortMock) { p.Reply("G", "ok") },
			func(d *scorpion.Driver) { d.GetPlate() },
		)

		out, err := execute(t, replay, "transcript", replay)
		require.NoError(t, err)
		assert.Contains(t, out, `> "V\r"`)
		assert.Contains(t, out, `> "G\r"`)
		assert.Contains(t, out, "bytes received")
	})

	t.Run("set validates before connecting", func(t *testing.T) {
		out, err := execute(t, "does-not-exist.cbor", "set", "height", "0")
		var verr *scorpion.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Empty(t, out)
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := execute(t, "does-not-exist.cbor", "run", "launch")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown action")
	})
}
