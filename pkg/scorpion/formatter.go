// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scorpion

import (
	"fmt"
	"time"
)

// FormatTransaction formats a transaction into a single human-readable line
func FormatTransaction(tx Transaction) string {
	timestamp := tx.Started.Format("15:04:05.000")
	result := fmt.Sprintf("[%s] > %-8s", timestamp, tx.Command)

	if tx.Err != nil && tx.Response == "" {
		result += fmt.Sprintf(" ! %v", tx.Err)
	} else {
		result += fmt.Sprintf(" < %-10s", tx.Response)
		if tx.Err != nil {
			result += fmt.Sprintf(" ! %v", tx.Err)
		}
	}

	result += fmt.Sprintf(" (%s", tx.Duration.Round(time.Millisecond))
	if tx.Echoes > 0 || tx.Blanks > 0 {
		result += fmt.Sprintf(", skipped %d echo/%d blank", tx.Echoes, tx.Blanks)
	}
	return result + ")"
}

// FormatStatus returns a description of a status code
func FormatStatus(s StatusCode) string {
	switch s {
	case StatusOkay:
		return "OKAY - ready"
	case StatusError:
		return "ERROR - query the error code for details"
	case StatusBusy:
		return "BUSY - motion in progress"
	case StatusRunFinished:
		return "RUN_FINISHED - stack exhausted"
	default:
		return fmt.Sprintf("UNKNOWN (%d)", int(s))
	}
}

// FormatErrorCode returns a description of an error code with an operator hint
func FormatErrorCode(e ErrorCode) string {
	switch e {
	case ErrorNone:
		return "NONE - no error"
	case ErrorArmUp:
		return "ARM_UP - arm failed to reach the up position"
	case ErrorArmDown:
		return "ARM_DOWN - arm failed to reach the down position"
	case ErrorPlateTransferBack:
		return "PLATE_TRANSFER_BACK - plate could not be returned to the stack"
	case ErrorArmHome:
		return "ARM_HOME - arm home sensor not reached"
	case ErrorLiftHome:
		return "LIFT_HOME - lift home sensor not reached"
	case ErrorConveyerJam:
		return "CONVEYER_JAM - clear the conveyer and initialize"
	case ErrorPauseButton:
		return "PAUSE_BUTTON - pause pressed on the front panel"
	default:
		return fmt.Sprintf("UNKNOWN (%d)", int(e))
	}
}
