// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Thermoquad/scorpion/pkg/scorpion"
	"github.com/Thermoquad/scorpion/pkg/transcript"
	"github.com/gorilla/websocket"
	"golang.org/x/term"
)

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = errors.New("websocket connection closed")

var errNoTarget = errors.New("either --port, --url or --replay must be specified")

// WebSocketPort is a scorpion.Port over a WebSocket bridge to a remote
// serial port. Each message carries raw port bytes.
type WebSocketPort struct {
	conn *websocket.Conn
	msgs chan []byte
	done chan struct{}
	buf  []byte

	mu      sync.Mutex
	timeout time.Duration
	err     error // why the reader stopped

	closeOnce sync.Once
}

var _ scorpion.Port = (*WebSocketPort)(nil)

func newWebSocketPort(conn *websocket.Conn) *WebSocketPort {
	w := &WebSocketPort{
		conn:    conn,
		msgs:    make(chan []byte, 16),
		done:    make(chan struct{}),
		timeout: scorpion.DefaultReadTimeout,
	}
	go w.readLoop()
	return w
}

// readLoop moves messages to the channel. Read deadlines are not used on the
// connection itself because a timed out gorilla connection cannot be read
// again.
func (w *WebSocketPort) readLoop() {
	defer close(w.msgs)
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.mu.Lock()
			w.err = err
			w.mu.Unlock()
			return
		}

		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}

		select {
		case w.msgs <- data:
		case <-w.done:
			return
		}
	}
}

// Read returns buffered message bytes, or waits up to the read timeout for
// the next message. A timeout returns (0, nil) like a serial port.
func (w *WebSocketPort) Read(p []byte) (int, error) {
	if len(w.buf) == 0 {
		w.mu.Lock()
		timeout := w.timeout
		w.mu.Unlock()

		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case data, ok := <-w.msgs:
			if !ok {
				return 0, w.readErr()
			}
			w.buf = data
		case <-timer.C:
			return 0, nil
		}
	}

	n := copy(p, w.buf)
	w.buf = w.buf[n:]
	return n, nil
}

func (w *WebSocketPort) readErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		return ErrConnectionClosed
	}
	return fmt.Errorf("%w: %v", ErrConnectionClosed, w.err)
}

func (w *WebSocketPort) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketPort) SetReadTimeout(t time.Duration) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.timeout = t
	return nil
}

func (w *WebSocketPort) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.conn.Close()
	})
	return err
}

// OpenWebSocketPort opens a WebSocket connection with HTTP Basic auth
func OpenWebSocketPort(wsURL, username, password string, skipSSLVerify bool) (*WebSocketPort, error) {
	// Parse and validate URL
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return newWebSocketPort(conn), nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv("SCORPION_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Not a terminal
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// resolveOpener picks how to reach the instrument from the config. It
// returns the opener, the name to connect to and a description for humans.
func resolveOpener(c *Config) (scorpion.Opener, string, string, error) {
	switch {
	case c.Replay != "":
		f, err := os.Open(c.Replay)
		if err != nil {
			return nil, "", "", fmt.Errorf("failed to open transcript: %w", err)
		}
		defer f.Close()

		records, err := transcript.Load(f)
		if err != nil {
			return nil, "", "", err
		}
		return transcript.ReplayOpener(records, false), c.Replay,
			fmt.Sprintf("Replay: %s (%d records)", c.Replay, len(records)), nil

	case c.URL != "":
		password := ""
		if c.Username != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", "", err
			}
		}

		open := func(string, int) (scorpion.Port, error) {
			return OpenWebSocketPort(c.URL, c.Username, password, c.NoSSLVerify)
		}
		return open, c.URL, fmt.Sprintf("WebSocket: %s", c.URL), nil

	case c.Port != "":
		return scorpion.SerialOpener, c.Port, fmt.Sprintf("Serial: %s @ %d baud", c.Port, c.Baud), nil
	}

	return nil, "", "", errNoTarget
}

// session is a driver built from the config plus what has to be closed with
// it.
type session struct {
	driver  *scorpion.Driver
	target  string
	info    string
	stats   *scorpion.Statistics
	closers []io.Closer
}

// newSession builds a disconnected driver from the loaded config.
func newSession(extra ...scorpion.Option) (*session, error) {
	open, target, info, err := resolveOpener(cfg)
	if err != nil {
		return nil, err
	}

	s := &session{
		target: target,
		info:   info,
		stats:  scorpion.NewStatistics(),
	}

	if cfg.Record != "" {
		f, err := os.Create(cfg.Record)
		if err != nil {
			return nil, fmt.Errorf("failed to create transcript: %w", err)
		}
		open = transcript.RecordingOpener(open, f)
		s.closers = append(s.closers, f)
	}

	opts := append(cfg.DriverOptions(),
		scorpion.WithOpener(open),
		scorpion.WithLogger(appLog),
		scorpion.WithStatistics(s.stats),
	)
	s.driver = scorpion.NewDriver(append(opts, extra...)...)
	return s, nil
}

// openSession builds a driver and connects it.
func openSession(extra ...scorpion.Option) (*session, error) {
	s, err := newSession(extra...)
	if err != nil {
		return nil, err
	}
	if err := s.driver.Open(s.target); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) Close() {
	s.driver.Disconnect()
	for _, c := range s.closers {
		c.Close()
	}
}
