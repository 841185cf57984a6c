// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transcript

import (
	"bytes"
	"testing"
	"time"

	"github.com/Thermoquad/scorpion/internal/testutils"
	"github.com/Thermoquad/scorpion/pkg/scorpion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func driverOptions(open scorpion.Opener) []scorpion.Option {
	return []scorpion.Option{
		scorpion.WithOpener(open),
		scorpion.WithSettleDelay(0),
		scorpion.WithReadTimeout(20 * time.Millisecond),
	}
}

// recordSession runs a short session against a mock instrument and returns
// the transcript bytes.
func recordSession(t *testing.T) []byte {
	t.Helper()
	port := testutils.NewPortMock()
	port.Echo = true
	port.Reply("V", "V1.02")
	port.Reply("?", "", "4")
	port.Reply("G", "ok")

	var buf bytes.Buffer
	open := RecordingOpener(func(string, int) (scorpion.Port, error) { return port, nil }, &buf)
	d := scorpion.NewDriver(driverOptions(open)...)

	require.True(t, d.Connect("/dev/ttyUSB0"))
	status, err := d.Status()
	require.NoError(t, err)
	require.Equal(t, scorpion.StatusBusy, status)
	require.NoError(t, d.GetPlate())
	require.NoError(t, d.Close())

	return buf.Bytes()
}

func TestRecorder_CapturesTraffic(t *testing.T) {
	records, err := Load(bytes.NewReader(recordSession(t)))
	require.NoError(t, err)
	require.NotEmpty(t, records)

	var out, in []byte
	for _, rec := range records {
		assert.NotZero(t, rec.At)
		switch rec.Dir {
		case Outbound:
			out = append(out, rec.Data...)
		case Inbound:
			in = append(in, rec.Data...)
		}
	}
	assert.Equal(t, "V\r?\rG\r", string(out))
	assert.Equal(t, "V\rV1.02\r?\r\r4\rG\rok\r", string(in))
	assert.Equal(t, Outbound, records[0].Dir)
}

func TestPlayer_ReplaysSession(t *testing.T) {
	records, err := Load(bytes.NewReader(recordSession(t)))
	require.NoError(t, err)

	d := scorpion.NewDriver(driverOptions(ReplayOpener(records, false))...)
	require.True(t, d.Connect("replay"))
	assert.Equal(t, "1.02", d.FirmwareVersion())

	status, err := d.Status()
	require.NoError(t, err)
	assert.Equal(t, scorpion.StatusBusy, status)
	require.NoError(t, d.GetPlate())
}

func TestPlayer_Diverged(t *testing.T) {
	records, err := Load(bytes.NewReader(recordSession(t)))
	require.NoError(t, err)

	d := scorpion.NewDriver(driverOptions(ReplayOpener(records, false))...)
	require.True(t, d.Connect("replay"))

	err = d.Abort()
	require.ErrorIs(t, err, ErrDiverged)
}

func TestPlayer_Lenient(t *testing.T) {
	records := []Record{
		{Dir: Outbound, Data: []byte("V\r")},
		{Dir: Inbound, Data: []byte("V9.9\r")},
		{Dir: Outbound, Data: []byte("G\r")},
		{Dir: Inbound, Data: []byte("ok\r")},
	}

	d := scorpion.NewDriver(driverOptions(ReplayOpener(records, true))...)
	require.True(t, d.Connect("replay"))
	require.NoError(t, d.ReplacePlate())
}

func TestPlayer_HoldsRepliesUntilWritten(t *testing.T) {
	p := NewPlayer([]Record{
		{Dir: Outbound, Data: []byte("?\r")},
		{Dir: Inbound, Data: []byte("0\r")},
	}, false)
	require.NoError(t, p.SetReadTimeout(5*time.Millisecond))

	buf := make([]byte, 16)
	n, err := p.Read(buf)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = p.Write([]byte("?\r"))
	require.NoError(t, err)

	n, err = p.Read(buf[:1])
	require.NoError(t, err)
	assert.Equal(t, "0", string(buf[:n]))
	n, err = p.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "\r", string(buf[:n]))
	assert.Zero(t, p.Remaining())

	_, err = p.Write([]byte("?\r"))
	require.ErrorIs(t, err, ErrDiverged)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte{0xff, 0x00}))
	require.Error(t, err)

	records, err := Load(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, records)
}
