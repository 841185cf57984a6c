// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Scorpion - Plate Handler Control
//
// A CLI tool for driving a Scorpion microplate handler over its serial
// command interface.

package main

import (
	"os"

	"github.com/Thermoquad/scorpion/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
