// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Thermoquad/scorpion/pkg/scorpion"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ResultOK},
		{scorpion.ErrTimeout, ResultTimeout},
		{fmt.Errorf("G: %w", scorpion.ErrRequest), ResultRejected},
		{&scorpion.UnexpectedResponseError{Request: "?", Response: "x"}, ResultUnexpected},
		{fmt.Errorf("%w: open", scorpion.ErrCircuitOpen), ResultCircuit},
		{errors.New("read: EOF"), ResultTransport},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Result(tt.err))
		})
	}
}

func TestExporter_ObserveTransaction(t *testing.T) {
	e := NewExporter()

	e.ObserveTransaction(scorpion.Transaction{Command: "?", Response: "0", Echoes: 1, Blanks: 2, Duration: 100 * time.Millisecond})
	e.ObserveTransaction(scorpion.Transaction{Command: "?", Response: "0", Echoes: 1})
	e.ObserveTransaction(scorpion.Transaction{Command: "G", Err: scorpion.ErrTimeout})

	assert.Equal(t, 2.0, testutil.ToFloat64(e.transactions.WithLabelValues("?", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.transactions.WithLabelValues("G", ResultTimeout)))
	assert.Equal(t, 2.0, testutil.ToFloat64(e.discarded.WithLabelValues("echo")))
	assert.Equal(t, 2.0, testutil.ToFloat64(e.discarded.WithLabelValues("blank")))
	assert.Equal(t, 1, testutil.CollectAndCount(e.latency))
}

func TestExporter_Gauges(t *testing.T) {
	e := NewExporter()
	assert.Equal(t, -1.0, testutil.ToFloat64(e.status))

	e.SetStatus(scorpion.StatusBusy)
	e.SetErrorCode(scorpion.ErrorConveyerJam)
	e.SetConnected(true)
	e.SetBreakerState(gobreaker.StateOpen)

	assert.Equal(t, 4.0, testutil.ToFloat64(e.status))
	assert.Equal(t, 9.0, testutil.ToFloat64(e.errorCode))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.connected))
	assert.Equal(t, 2.0, testutil.ToFloat64(e.breakerState))

	e.SetConnected(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(e.connected))
}

func TestExporter_Handler(t *testing.T) {
	e := NewExporter()
	e.SetStatus(scorpion.StatusOkay)

	srv := httptest.NewServer(e.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "scorpion_status 0")
}
