// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package machine

import (
	"errors"
	"fmt"
)

var (
	ErrImageTooShort = errors.New("image too short for origin")
	ErrInterrupted   = errors.New("interrupted")
	ErrNoConsole     = errors.New("no console attached")
	ErrNotRunning    = errors.New("machine not running")
)

// IllegalOpcodeError is returned by Step when the fetched instruction uses
// RTI or the reserved opcode. The machine is left Faulted.
type IllegalOpcodeError struct {
	Addr        uint16
	Instruction Instruction
}

func (err *IllegalOpcodeError) Opcode() uint16 {
	return err.Instruction.Opcode()
}

func (err *IllegalOpcodeError) Error() string {
	return fmt.Sprintf(
		"illegal opcode %#x (%s) at %#04x",
		err.Opcode(),
		OpcodeName(err.Opcode()),
		err.Addr,
	)
}

// UnhandledTrapError is returned by Step for a TRAP vector outside the
// service table. Execution may continue past it.
type UnhandledTrapError struct {
	Addr   uint16
	Vector uint16
}

func (err *UnhandledTrapError) Error() string {
	return fmt.Sprintf("unhandled trap vector %#02x at %#04x", err.Vector, err.Addr)
}

// ConsoleError wraps a failure of the attached console.
type ConsoleError struct {
	Addr uint16
	Err  error
}

func (err *ConsoleError) Error() string {
	return fmt.Sprintf("console at %#04x: %v", err.Addr, err.Err)
}

func (err *ConsoleError) Unwrap() error {
	return err.Err
}
