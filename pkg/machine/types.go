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
	"github.com/sirupsen/logrus"
)

type Status uint8

const (
	Running Status = iota
	Halted
	Faulted
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Halted:
		return "halted"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Console is the host character device the keyboard registers and the trap
// routines talk to.
type Console interface {
	// KeyAvailable reports whether a key can be read without blocking. It may
	// wait for a bounded time before answering no.
	KeyAvailable() bool
	ReadChar() (byte, error)
	WriteChar(c byte) error
	Flush() error
}

// MachineTracer observes execution. Step sees every fetched instruction before
// it executes; Read and Write see the data accesses it makes.
type MachineTracer interface {
	Step(mc *Machine, addr uint16, instruction Instruction)
	Read(addr uint16, value uint16)
	Write(addr uint16, value uint16)
}

type MachineState struct {
	Registers [8]uint16
	Program   uint16
	Condition uint16
	Status    Status
	Memory    [MEMSPACE_SIZE]uint16
}

type Machine struct {
	Console Console
	State   MachineState
	Tracer  MachineTracer
	Log     logrus.FieldLogger

	// GetcPrompt makes GETC print InputPrompt before reading, like IN does.
	GetcPrompt bool

	// Anomalies collects the non-fatal errors seen by Run.
	Anomalies []error

	ioErr error
}

func New(console Console) *Machine {
	mc := &Machine{
		Console: console,
		Log:     logrus.StandardLogger(),
	}

	mc.State.Reset()

	return mc
}

func (mc *Machine) logger() logrus.FieldLogger {
	if mc.Log == nil {
		return logrus.StandardLogger()
	}

	return mc.Log
}
