// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scorpion

import (
	"errors"
	"testing"
	"time"

	"github.com/Thermoquad/scorpion/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineChannel_SetsReadTimeout(t *testing.T) {
	port := testutils.NewPortMock()
	_, err := newLineChannel(port, 42*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 42*time.Millisecond, port.ReadTimeout())
}

func TestLineChannel_SetReadTimeoutError(t *testing.T) {
	port := testutils.NewPortMock()
	port.TimeoutErr = errors.New("unsupported")
	_, err := newLineChannel(port, time.Second)
	require.ErrorIs(t, err, port.TimeoutErr)
}

func TestLineChannel_WriteLine(t *testing.T) {
	port := testutils.NewPortMock()
	ch, err := newLineChannel(port, 10*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, ch.WriteLine("P1=20"))
	assert.Equal(t, []string{"P1=20\r"}, port.Written())
}

func TestLineChannel_WriteError(t *testing.T) {
	port := testutils.NewPortMock()
	port.WriteErr = errors.New("broken pipe")
	ch, err := newLineChannel(port, 10*time.Millisecond)
	require.NoError(t, err)

	err = ch.WriteLine("G")
	require.ErrorIs(t, err, port.WriteErr)
}

func TestLineChannel_ReadLine(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   []string
	}{
		{
			name:   "single line",
			chunks: []string{"ok\r"},
			want:   []string{"ok"},
		},
		{
			name:   "line split across reads",
			chunks: []string{"P1", "=4", "2\r"},
			want:   []string{"P1=42"},
		},
		{
			name:   "several lines in one read",
			chunks: []string{"P1\r\rP1=42\r"},
			want:   []string{"P1", "", "P1=42"},
		},
		{
			name:   "crlf terminated",
			chunks: []string{"ok\r\n", "err\r\n"},
			want:   []string{"ok", "err"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := testutils.NewPortMock(tt.chunks...)
			ch, err := newLineChannel(port, 20*time.Millisecond)
			require.NoError(t, err)

			for _, want := range tt.want {
				got, err := ch.ReadLine()
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
		})
	}
}

func TestLineChannel_ReadLineTimeout(t *testing.T) {
	port := testutils.NewPortMock("partial")
	ch, err := newLineChannel(port, 15*time.Millisecond)
	require.NoError(t, err)

	start := time.Now()
	_, err = ch.ReadLine()
	require.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestLineChannel_ReadError(t *testing.T) {
	port := testutils.NewPortMock()
	port.ReadErr = errors.New("device disconnected")
	ch, err := newLineChannel(port, 10*time.Millisecond)
	require.NoError(t, err)

	_, err = ch.ReadLine()
	require.ErrorIs(t, err, port.ReadErr)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestLineChannel_Close(t *testing.T) {
	port := testutils.NewPortMock()
	ch, err := newLineChannel(port, 10*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, ch.Close())
	assert.True(t, port.Closed())
}
