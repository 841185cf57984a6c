// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scorpion

// query runs a value query on a connected driver.
func (d *Driver) query(command, prefix string, decode func(Response) error) error {
	if d.state != Connected {
		return ErrNotConnected
	}
	return d.roundTrip(command, prefix, decode)
}

// command runs an imperative that must be answered with "ok".
func (d *Driver) command(command string) error {
	if d.state != Connected {
		return ErrNotConnected
	}
	return d.roundTrip(command, "", nil)
}

func (d *Driver) queryInt(command, prefix string) (int, error) {
	var n int
	err := d.query(command, prefix, func(r Response) (err error) {
		n, err = DecodeInt(command, r)
		return err
	})
	return n, err
}

func (d *Driver) setPosition(key string, position int) error {
	cmd, err := EncodePosition(key, position)
	if err != nil {
		d.rejected(err)
		return err
	}
	return d.command(cmd)
}

func (d *Driver) rejected(err error) {
	d.logger.Debug("parameter rejected", "err", err)
	if d.stats != nil {
		d.stats.RecordValidation()
	}
}

// Queries

// Version returns the firmware version text.
func (d *Driver) Version() (string, error) {
	var version string
	err := d.query(d.commands.Version, d.commands.VersionReply, func(r Response) error {
		version = r.Value
		return nil
	})
	return version, err
}

// Status returns the instrument status.
func (d *Driver) Status() (StatusCode, error) {
	var status StatusCode
	err := d.query(d.commands.Status, "", func(r Response) (err error) {
		status, err = DecodeStatus(d.commands.Status, r)
		return err
	})
	return status, err
}

// ErrorCode returns the code describing the last instrument error.
func (d *Driver) ErrorCode() (ErrorCode, error) {
	var code ErrorCode
	err := d.query(d.commands.Error, d.commands.ErrorReply, func(r Response) (err error) {
		code, err = DecodeErrorCode(d.commands.Error, r)
		return err
	})
	return code, err
}

// TransferPosition returns the plate transfer position.
func (d *Driver) TransferPosition() (int, error) {
	return d.queryInt(d.commands.TransferPosition, valueReply(d.commands.TransferPosition))
}

// ArmSafePosition returns the arm safe position.
func (d *Driver) ArmSafePosition() (int, error) {
	return d.queryInt(d.commands.ArmSafePosition, valueReply(d.commands.ArmSafePosition))
}

// DropPosition returns the plate drop position.
func (d *Driver) DropPosition() (int, error) {
	return d.queryInt(d.commands.DropPosition, valueReply(d.commands.DropPosition))
}

// PlateHeight returns the configured plate height.
func (d *Driver) PlateHeight() (int, error) {
	return d.queryInt(d.commands.PlateHeight, valueReply(d.commands.PlateHeight))
}

// ArmSpeed returns the arm speed.
func (d *Driver) ArmSpeed() (Speed, error) {
	var speed Speed
	cmd := d.commands.ArmSpeedQuery
	err := d.query(cmd, valueReply(cmd), func(r Response) (err error) {
		speed, err = DecodeSpeed(cmd, r)
		return err
	})
	return speed, err
}

// Settings

// SetTransferPosition sets the plate transfer position (0-255).
func (d *Driver) SetTransferPosition(position int) error {
	return d.setPosition(d.commands.TransferPosition, position)
}

// SetArmSafePosition sets the arm safe position (0-255).
func (d *Driver) SetArmSafePosition(position int) error {
	return d.setPosition(d.commands.ArmSafePosition, position)
}

// SetDropPosition sets the plate drop position (0-255).
func (d *Driver) SetDropPosition(position int) error {
	return d.setPosition(d.commands.DropPosition, position)
}

// SetPlateHeight sets the plate height (1-255).
func (d *Driver) SetPlateHeight(height int) error {
	cmd, err := EncodePlateHeight(d.commands.PlateHeight, height)
	if err != nil {
		d.rejected(err)
		return err
	}
	return d.command(cmd)
}

// SetArmSpeed sets the arm speed.
func (d *Driver) SetArmSpeed(speed Speed) error {
	return d.command(EncodeSet(d.commands.ArmSpeedSet, int(speed)))
}

// SetMode sets the plate handling mode.
func (d *Driver) SetMode(mode Mode) error {
	return d.command(EncodeSet(d.commands.Mode, int(mode)))
}

// Imperatives

// Initialize homes the instrument.
func (d *Driver) Initialize() error { return d.command(d.commands.Initialize) }

// GetPlate moves the next plate from the stack to the transfer position.
func (d *Driver) GetPlate() error { return d.command(d.commands.GetPlate) }

// ReplacePlate returns the plate at the transfer position to the stack.
func (d *Driver) ReplacePlate() error { return d.command(d.commands.ReplacePlate) }

// FinishRun ends the current run.
func (d *Driver) FinishRun() error { return d.command(d.commands.FinishRun) }

// PrimeStack prepares the stack for a run.
func (d *Driver) PrimeStack() error { return d.command(d.commands.PrimeStack) }

// Abort stops the current motion.
func (d *Driver) Abort() error { return d.command(d.commands.Abort) }

// TestTransfer runs a transfer cycle without a plate.
func (d *Driver) TestTransfer() error { return d.command(d.commands.TestTransfer) }

// JogToTarget jogs the arm to the target position.
func (d *Driver) JogToTarget() error { return d.command(d.commands.JogToTarget) }

// JogToHome jogs the arm to its home position.
func (d *Driver) JogToHome() error { return d.command(d.commands.JogToHome) }
