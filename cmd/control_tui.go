// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/scorpion/pkg/scorpion"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sony/gobreaker/v2"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

// Focus states
const (
	focusActionList = iota
	focusInput
)

const maxLogEntries = 100

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// actionItem adapts an action for the list
type actionItem struct{ action }

func (a actionItem) Title() string       { return a.name }
func (a actionItem) Description() string { return a.desc }
func (a actionItem) FilterValue() string { return a.name }

type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// controlModel is the Bubble Tea model for the control TUI
type controlModel struct {
	ctx      context.Context
	ctl      *controller
	interval time.Duration

	// Instrument state from the last poll
	version      string
	status       scorpion.StatusCode
	hasStatus    bool
	errorCode    scorpion.ErrorCode
	hasErrorCode bool
	lastPoll     time.Time
	polling      bool

	// Control
	actionList   list.Model
	input        textinput.Model
	focusedField int
	pending      string // action in flight

	eventLog []logEntry

	// UI state
	width          int
	height         int
	quitting       bool
	connectionLost bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type controlTickMsg time.Time

type pollResultMsg struct {
	status    scorpion.StatusCode
	errorCode scorpion.ErrorCode
	hasCode   bool
	err       error
}

type actionDoneMsg struct {
	name  string
	reply string
	err   error
}

type transactionMsg scorpion.Transaction

type reconnectedMsg struct {
	version string
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialControlModel(ctx context.Context, ctl *controller, interval time.Duration) controlModel {
	ti := textinput.New()
	ti.Placeholder = "transfer 120"
	ti.CharLimit = 32
	ti.Width = 24

	items := make([]list.Item, len(actions))
	for i, a := range actions {
		items[i] = actionItem{a}
	}
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	actionList := list.New(items, delegate, 30, 14)
	actionList.Title = "Actions"
	actionList.SetShowStatusBar(false)
	actionList.SetShowHelp(false)
	actionList.SetFilteringEnabled(false)

	return controlModel{
		ctx:          ctx,
		ctl:          ctl,
		interval:     interval,
		version:      ctl.s.driver.FirmwareVersion(),
		actionList:   actionList,
		input:        ti,
		focusedField: focusActionList,
		width:        80,
		height:       24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m controlModel) Init() tea.Cmd {
	return tea.Batch(controlTickCmd(), m.pollCmd())
}

func controlTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return controlTickMsg(t)
	})
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.actionList.SetHeight(max(msg.Height-20, 6))
		return m, nil

	case controlTickMsg:
		var cmds []tea.Cmd
		cmds = append(cmds, controlTickCmd())
		if !m.polling && !m.connectionLost && time.Since(m.lastPoll) >= m.interval {
			m.polling = true
			cmds = append(cmds, m.pollCmd())
		}
		return m, tea.Batch(cmds...)

	case pollResultMsg:
		return m.handlePollResult(msg)

	case actionDoneMsg:
		m.pending = ""
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("%s failed: %v", msg.name, msg.err), true)
			return m, m.checkConnection(msg.err)
		}
		if msg.reply != "" {
			m.addLogEntry(fmt.Sprintf("%s: %s", msg.name, msg.reply), false)
		} else {
			m.addLogEntry(fmt.Sprintf("%s: ok", msg.name), false)
		}
		return m, m.pollCmd()

	case transactionMsg:
		tx := scorpion.Transaction(msg)
		// Successful polls would drown everything else
		if tx.Err != nil || !m.isPollCommand(tx.Command) {
			m.addLogEntry(scorpion.FormatTransaction(tx), tx.Err != nil)
		}
		return m, nil

	case reconnectedMsg:
		m.ctl.reconnecting = false
		m.connectionLost = false
		m.version = msg.version
		m.addLogEntry(fmt.Sprintf("Reconnected, firmware %s", msg.version), false)
		return m, m.pollCmd()
	}

	var cmd tea.Cmd
	if m.focusedField == focusInput {
		m.input, cmd = m.input.Update(msg)
	} else {
		m.actionList, cmd = m.actionList.Update(msg)
	}
	return m, cmd
}

func (m controlModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "q":
		if m.focusedField == focusActionList {
			m.quitting = true
			return m, tea.Quit
		}

	case "tab", "shift+tab":
		if m.focusedField == focusActionList {
			m.focusedField = focusInput
			m.input.Focus()
		} else {
			m.focusedField = focusActionList
			m.input.Blur()
		}
		return m, nil

	case "x":
		if m.focusedField == focusActionList {
			a, _ := findAction("abort")
			return m.runAction(a)
		}

	case "enter":
		if m.focusedField == focusActionList {
			item, ok := m.actionList.SelectedItem().(actionItem)
			if !ok {
				return m, nil
			}
			return m.runAction(item.action)
		}
		line := strings.TrimSpace(m.input.Value())
		m.input.SetValue("")
		return m.submitInput(line)
	}

	var cmd tea.Cmd
	if m.focusedField == focusInput {
		m.input, cmd = m.input.Update(msg)
	} else {
		m.actionList, cmd = m.actionList.Update(msg)
	}
	return m, cmd
}

//////////////////////////////////////////////////////////////
// Commands
//////////////////////////////////////////////////////////////

func (m controlModel) isPollCommand(command string) bool {
	cs := m.ctl.s.driver.Commands()
	return command == cs.Status || command == cs.Error
}

// pollCmd reads the status, and the error code when the status is ERROR.
func (m controlModel) pollCmd() tea.Cmd {
	ctl := m.ctl
	return func() tea.Msg {
		var res pollResultMsg
		res.err = ctl.do(func(d *scorpion.Driver) error {
			status, err := d.Status()
			if err != nil {
				return err
			}
			res.status = status
			if status != scorpion.StatusError {
				return nil
			}
			res.errorCode, err = d.ErrorCode()
			res.hasCode = err == nil
			return err
		})
		return res
	}
}

func (m controlModel) runAction(a action) (tea.Model, tea.Cmd) {
	if m.connectionLost {
		m.addLogEntry("Cannot send command: connection lost", true)
		return m, nil
	}
	if m.pending != "" && a.name != "abort" {
		m.addLogEntry(fmt.Sprintf("Busy with %s", m.pending), true)
		return m, nil
	}

	m.pending = a.name
	ctl := m.ctl
	return m, func() tea.Msg {
		err := ctl.do(a.run)
		return actionDoneMsg{name: a.name, err: err}
	}
}

// submitInput runs "<setting> <value>" as a setting change and anything else
// as a raw command.
func (m controlModel) submitInput(line string) (tea.Model, tea.Cmd) {
	if line == "" {
		return m, nil
	}
	if m.connectionLost {
		m.addLogEntry("Cannot send command: connection lost", true)
		return m, nil
	}

	ctl := m.ctl
	if fields := strings.Fields(line); len(fields) == 2 {
		if p, ok := findParam(fields[0]); ok {
			return m, func() tea.Msg {
				err := ctl.do(func(d *scorpion.Driver) error { return p.set(d, fields[1]) })
				return actionDoneMsg{name: "set " + p.name, err: err}
			}
		}
	}

	return m, func() tea.Msg {
		var reply string
		err := ctl.do(func(d *scorpion.Driver) (err error) {
			reply, err = d.Transact(line)
			return err
		})
		return actionDoneMsg{name: line, reply: reply, err: err}
	}
}

func (m controlModel) handlePollResult(msg pollResultMsg) (tea.Model, tea.Cmd) {
	m.polling = false
	m.lastPoll = time.Now()

	if msg.err != nil {
		return m, m.checkConnection(msg.err)
	}

	if !m.hasStatus || m.status != msg.status {
		if m.hasStatus {
			m.addLogEntry(fmt.Sprintf("Status %s -> %s", m.status, msg.status), msg.status == scorpion.StatusError)
		}
		m.status = msg.status
		m.hasStatus = true
	}

	if msg.hasCode {
		if !m.hasErrorCode || m.errorCode != msg.errorCode {
			m.addLogEntry(scorpion.FormatErrorCode(msg.errorCode), msg.errorCode != scorpion.ErrorNone)
		}
		m.errorCode = msg.errorCode
		m.hasErrorCode = true
	} else if msg.status != scorpion.StatusError {
		m.hasErrorCode = false
	}
	return m, nil
}

// checkConnection starts reconnecting once the breaker has given up on the
// instrument.
func (m *controlModel) checkConnection(err error) tea.Cmd {
	if !errors.Is(err, scorpion.ErrCircuitOpen) && !errors.Is(err, scorpion.ErrNotConnected) {
		return nil
	}
	if m.ctl.reconnecting {
		return nil
	}

	m.connectionLost = true
	m.ctl.reconnecting = true
	m.addLogEntry("Instrument not answering - reconnecting...", true)

	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		version, err := ctl.reconnect(ctx)
		if err != nil {
			return nil
		}
		return reconnectedMsg{version: version}
	}
}

func (m *controlModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, logEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.eventLog) > maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-maxLogEntries:]
	}
}

//////////////////////////////////////////////////////////////
// Rendering
//////////////////////////////////////////////////////////////

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	focusedBoxStyle = boxStyle.
			BorderForeground(lipgloss.Color("12"))
)

func (m controlModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	connStatus := m.ctl.s.info
	if m.connectionLost {
		connStatus = warningStyle.Render("RECONNECTING...")
	}
	s.WriteString(titleStyle.Render("SCORPION CONTROL"))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | q=quit Tab=switch x=abort", connStatus)))
	s.WriteString("\n\n")

	leftWidth := 34
	rightWidth := max(m.width-leftWidth-6, 30)

	listStyle := boxStyle.Width(leftWidth)
	inputStyle := boxStyle.Width(rightWidth)
	if m.focusedField == focusActionList {
		listStyle = focusedBoxStyle.Width(leftWidth)
	} else {
		inputStyle = focusedBoxStyle.Width(rightWidth)
	}

	right := lipgloss.JoinVertical(lipgloss.Left,
		boxStyle.Width(rightWidth).Render(m.renderInstrument()),
		inputStyle.Render(labelStyle.Render("Command: ")+m.input.View()),
	)
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, listStyle.Render(m.actionList.View()), " ", right))
	s.WriteString("\n")

	s.WriteString(m.renderStatisticsBar())
	s.WriteString("\n")
	s.WriteString(m.renderEventLog())

	return s.String()
}

func (m controlModel) renderInstrument() string {
	var s strings.Builder

	fmt.Fprintf(&s, "%s %s\n", labelStyle.Render("Firmware:"), valueStyle.Render(m.version))

	status := headerStyle.Render("unknown")
	if m.hasStatus {
		switch m.status {
		case scorpion.StatusError:
			status = errorStyle.Render(scorpion.FormatStatus(m.status))
		case scorpion.StatusBusy:
			status = warningStyle.Render(scorpion.FormatStatus(m.status))
		default:
			status = valueStyle.Render(scorpion.FormatStatus(m.status))
		}
	}
	fmt.Fprintf(&s, "%s %s\n", labelStyle.Render("Status:"), status)

	if m.hasErrorCode {
		fmt.Fprintf(&s, "%s %s\n", labelStyle.Render("Error:"), errorStyle.Render(scorpion.FormatErrorCode(m.errorCode)))
	}

	if state, ok := m.ctl.s.driver.BreakerState(); ok {
		style := valueStyle
		if state != gobreaker.StateClosed {
			style = errorStyle
		}
		fmt.Fprintf(&s, "%s %s\n", labelStyle.Render("Link:"), style.Render(state.String()))
	}

	if m.pending != "" {
		fmt.Fprintf(&s, "%s %s", labelStyle.Render("Running:"), warningStyle.Render(m.pending))
	}
	return s.String()
}

func (m controlModel) renderStatisticsBar() string {
	stats := m.ctl.s.stats
	stats.CalculateRates()

	var errorPercent float64
	if stats.Transactions > 0 {
		errorPercent = float64(stats.Errors()) * 100.0 / float64(stats.Transactions)
	}

	errText := valueStyle.Render("0.0%")
	if errorPercent > 0 {
		errText = errorStyle.Render(fmt.Sprintf("%.1f%%", errorPercent))
	}

	content := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s",
		labelStyle.Render("Transactions:"), valueStyle.Render(fmt.Sprintf("%d", stats.Transactions)),
		labelStyle.Render("Errors:"), errText,
		labelStyle.Render("Timeouts:"), valueStyle.Render(fmt.Sprintf("%d", stats.Timeouts)),
		labelStyle.Render("Latency:"), valueStyle.Render(stats.AverageLatency().Round(time.Millisecond).String()),
	)
	return boxStyle.Width(max(m.width-4, 40)).Render(content)
}

func (m controlModel) renderEventLog() string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("EVENTS"))
	s.WriteString("\n")

	logHeight := 8
	start := max(len(m.eventLog)-logHeight, 0)

	if len(m.eventLog) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	}
	for _, entry := range m.eventLog[start:] {
		icon, style := "i", warningStyle
		if entry.isError {
			icon, style = "x", errorStyle
		}
		fmt.Fprintf(&s, "%s %s %s\n",
			headerStyle.Render(entry.timestamp.Format("15:04:05.000")),
			style.Render(icon),
			entry.message)
	}

	return boxStyle.Width(max(m.width-4, 40)).Render(s.String())
}
