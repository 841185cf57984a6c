// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Thermoquad/scorpion/pkg/scorpion"
	"github.com/ergochat/readline"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	historyFileName = ".scorpion_history"
	historySize     = 500
)

var shellTrace bool

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Send raw commands interactively",
	Long: `Open a prompt that sends each line to the instrument as a raw command
and prints the reply. Echoes and blank lines are skipped as usual, but the
reply is not interpreted.

Shell commands:
  :status   show status and error code
  :stats    show transaction statistics
  :quit     leave the shell (also Ctrl+D)

With --trace every transaction is printed with its timing and the number of
lines skipped.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
	shellCmd.Flags().BoolVarP(&shellTrace, "trace", "t", false, "Print every transaction")
}

// lineEditor reads prompt lines with history on a terminal, and plain lines
// otherwise.
type lineEditor struct {
	rl      *readline.Instance
	scanner *bufio.Scanner
	out     io.Writer
}

func newLineEditor(in *os.File, out io.Writer) *lineEditor {
	if !term.IsTerminal(int(in.Fd())) {
		return &lineEditor{scanner: bufio.NewScanner(in), out: out}
	}

	home, _ := os.UserHomeDir()
	rl, err := readline.NewFromConfig(&readline.Config{
		HistoryFile:            filepath.Join(home, historyFileName),
		HistoryLimit:           historySize,
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		appLog.Warn("readline unavailable, using basic input", "err", err)
		return &lineEditor{scanner: bufio.NewScanner(in), out: out}
	}
	return &lineEditor{rl: rl, out: out}
}

// ReadLine returns io.EOF when input ends or the user interrupts.
func (le *lineEditor) ReadLine(prompt string) (string, error) {
	if le.rl == nil {
		if !le.scanner.Scan() {
			if err := le.scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return le.scanner.Text(), nil
	}

	le.rl.SetPrompt(prompt)
	line, err := le.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	if trimmed := strings.TrimSpace(line); trimmed != "" {
		le.rl.SaveToHistory(trimmed)
	}
	return line, nil
}

func (le *lineEditor) Close() {
	if le.rl != nil {
		le.rl.Close()
	}
}

func runShell(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var opts []scorpion.Option
	if shellTrace {
		opts = append(opts, scorpion.WithTransactionHook(func(tx scorpion.Transaction) {
			fmt.Fprintln(out, scorpion.FormatTransaction(tx))
		}))
	}

	s, err := openSession(opts...)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintf(out, "Connected to %s, firmware %s\n", s.info, s.driver.FirmwareVersion())
	fmt.Fprintf(out, "Type :quit to exit\n\n")

	editor := newLineEditor(os.Stdin, out)
	defer editor.Close()

	for {
		line, err := editor.ReadLine("scorpion> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if quit := shellLine(out, s, strings.TrimSpace(line)); quit {
			return nil
		}
	}
}

// shellLine handles one line of input and reports whether the shell should
// exit.
func shellLine(out io.Writer, s *session, line string) bool {
	switch line {
	case "":
		return false
	case ":quit", ":q", ":exit":
		return true
	case ":stats":
		fmt.Fprint(out, s.stats.String())
		return false
	case ":status":
		status, err := s.driver.Status()
		if err != nil {
			fmt.Fprintf(out, "! %v\n", err)
			return false
		}
		if err := reportStatus(out, s.driver, status); err != nil && status != scorpion.StatusError {
			fmt.Fprintf(out, "! %v\n", err)
		}
		return false
	}

	reply, err := s.driver.Transact(line)
	if err != nil {
		fmt.Fprintf(out, "! %v\n", err)
		return false
	}
	if !shellTrace {
		fmt.Fprintln(out, reply)
	}
	return false
}
