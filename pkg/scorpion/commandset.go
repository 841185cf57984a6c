// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scorpion

// CommandSet is the mnemonic table for one firmware revision. Query
// mnemonics for positions double as the key of the matching set command,
// so "P1" is queried as "P1" and set as "P1=<n>".
type CommandSet struct {
	Version      string `yaml:"version"`
	VersionReply string `yaml:"version_reply"`
	Status       string `yaml:"status"`
	Error        string `yaml:"error"`
	ErrorReply   string `yaml:"error_reply"`

	TransferPosition string `yaml:"transfer_position"`
	ArmSafePosition  string `yaml:"arm_safe_position"`
	DropPosition     string `yaml:"drop_position"`
	PlateHeight      string `yaml:"plate_height"`
	ArmSpeedQuery    string `yaml:"arm_speed_query"`
	ArmSpeedSet      string `yaml:"arm_speed_set"`
	Mode             string `yaml:"mode"`

	Initialize   string `yaml:"initialize"`
	GetPlate     string `yaml:"get_plate"`
	ReplacePlate string `yaml:"replace_plate"`
	FinishRun    string `yaml:"finish_run"`
	PrimeStack   string `yaml:"prime_stack"`
	Abort        string `yaml:"abort"`
	TestTransfer string `yaml:"test_transfer"`
	JogToTarget  string `yaml:"jog_to_target"`
	JogToHome    string `yaml:"jog_to_home"`
}

// DefaultCommandSet returns the mnemonics of the current firmware.
func DefaultCommandSet() CommandSet {
	return CommandSet{
		Version:      "V",
		VersionReply: "V",
		Status:       "?",
		Error:        "E",
		ErrorReply:   "E",

		TransferPosition: "P1",
		ArmSafePosition:  "P4",
		DropPosition:     "P3",
		PlateHeight:      "P5",
		ArmSpeedQuery:    "S?",
		ArmSpeedSet:      "AS",
		Mode:             "MD",

		Initialize:   "I",
		GetPlate:     "G",
		ReplacePlate: "R",
		FinishRun:    "PA",
		PrimeStack:   "U",
		Abort:        "A!",
		TestTransfer: "T",
		JogToTarget:  "J1",
		JogToHome:    "J2",
	}
}

// Merge returns c with every non-empty field of o applied on top.
func (c CommandSet) Merge(o CommandSet) CommandSet {
	pick := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	pick(&c.Version, o.Version)
	pick(&c.VersionReply, o.VersionReply)
	pick(&c.Status, o.Status)
	pick(&c.Error, o.Error)
	pick(&c.ErrorReply, o.ErrorReply)
	pick(&c.TransferPosition, o.TransferPosition)
	pick(&c.ArmSafePosition, o.ArmSafePosition)
	pick(&c.DropPosition, o.DropPosition)
	pick(&c.PlateHeight, o.PlateHeight)
	pick(&c.ArmSpeedQuery, o.ArmSpeedQuery)
	pick(&c.ArmSpeedSet, o.ArmSpeedSet)
	pick(&c.Mode, o.Mode)
	pick(&c.Initialize, o.Initialize)
	pick(&c.GetPlate, o.GetPlate)
	pick(&c.ReplacePlate, o.ReplacePlate)
	pick(&c.FinishRun, o.FinishRun)
	pick(&c.PrimeStack, o.PrimeStack)
	pick(&c.Abort, o.Abort)
	pick(&c.TestTransfer, o.TestTransfer)
	pick(&c.JogToTarget, o.JogToTarget)
	pick(&c.JogToHome, o.JogToHome)
	return c
}

// valueReply is the reply prefix for a "key=value" style query.
func valueReply(key string) string {
	return key + "="
}
