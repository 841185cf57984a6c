// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/scorpion/internal/metrics"
	"github.com/Thermoquad/scorpion/internal/testutils"
	"github.com/Thermoquad/scorpion/pkg/scorpion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, e *metrics.Exporter) string {
	t.Helper()
	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func newTestMonitor(t *testing.T, port *testutils.PortMock, verbose bool) (*monitor, *bytes.Buffer) {
	t.Helper()
	exporter := metrics.NewExporter()
	s := newTestSession(t, port,
		scorpion.WithBreaker(scorpion.DefaultBreakerSettings("test-monitor", time.Minute)),
		scorpion.WithTransactionHook(exporter.ObserveTransaction),
	)

	var out bytes.Buffer
	return &monitor{s: s, exporter: exporter, out: &out, verbose: verbose, connected: true}, &out
}

func TestMonitor_ReportsChanges(t *testing.T) {
	port := testutils.NewPortMock()
	port.Reply("?", "0")
	port.Reply("?", "2")
	port.Reply("E", "E9")
	mon, out := newTestMonitor(t, port, false)

	for i := 0; i < 3; i++ {
		mon.poll()
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2, out.String())
	assert.Contains(t, lines[0], "OKAY")
	assert.Contains(t, lines[1], "CONVEYER_JAM")

	body := scrape(t, mon.exporter)
	assert.Contains(t, body, "scorpion_status 2")
	assert.Contains(t, body, "scorpion_error_code 9")
	assert.Contains(t, body, "scorpion_circuit_breaker_state 0")
}

func TestMonitor_Verbose(t *testing.T) {
	port := testutils.NewPortMock()
	port.Reply("?", "4")
	mon, out := newTestMonitor(t, port, true)

	mon.poll()
	mon.poll()

	assert.Equal(t, 2, strings.Count(out.String(), "BUSY"))
}

func TestMonitor_LinkLost(t *testing.T) {
	mon, out := newTestMonitor(t, testutils.NewPortMock(), false)

	for i := 0; i < 4; i++ {
		mon.poll()
	}

	assert.False(t, mon.connected)
	assert.Contains(t, out.String(), "reconnecting")
	assert.Contains(t, out.String(), scorpion.ErrTimeout.Error())

	body := scrape(t, mon.exporter)
	assert.Contains(t, body, "scorpion_connected 0")
	assert.Contains(t, body, "scorpion_circuit_breaker_state 2")
	assert.Contains(t, body, `scorpion_transactions_total{command="?",result="timeout"} 3`)
}
