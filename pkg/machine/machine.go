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
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Step runs one fetch, increment, decode and execute cycle. PC is advanced
// before the instruction executes, so every PC-relative offset is relative to
// the following instruction.
func (mc *Machine) Step() error {
	if mc.State.Status != Running {
		return ErrNotRunning
	}

	addr := mc.State.Program
	instruction := mc.fetch(addr)

	mc.State.Program++

	if mc.Tracer != nil {
		mc.Tracer.Step(mc, addr, instruction)
	}

	regs := &mc.State.Registers
	var err error

	switch instruction.Opcode() {
	// ADD  |0001    |DR   |SR1  |0|00 |SR2   | Register  addition
	// ADD  |0001    |DR   |SR1  |1|imm5      | Immediate addition
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ADD:
		dest := instruction.DR()

		if instruction.ImmMode() {
			regs[dest] = regs[instruction.SR1()] + instruction.Imm5()
		} else {
			regs[dest] = regs[instruction.SR1()] + regs[instruction.SR2()]
		}

		mc.State.setFlags(dest)

	// AND  |0101    |DR   |SR1  |0|00 |SR2   | Register  bitwise
	// AND  |0101    |DR   |SR1  |1|imm5      | Immediate bitwise
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_AND:
		dest := instruction.DR()

		if instruction.ImmMode() {
			regs[dest] = regs[instruction.SR1()] & instruction.Imm5()
		} else {
			regs[dest] = regs[instruction.SR1()] & regs[instruction.SR2()]
		}

		mc.State.setFlags(dest)

	// NOT  |1001    |DR   |SR   |1|11111     | Bitwise complement
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_NOT:
		dest := instruction.DR()

		regs[dest] = ^regs[instruction.SR1()]

		mc.State.setFlags(dest)

	// BR   |0000    |N|Z|P|PCoffset9         | Conditional branch
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_BR:
		if instruction.Cond()&mc.State.Condition != 0 {
			mc.State.Program += instruction.PCOffset9()
		}

	// JMP  |1100    |000  |BaseR|000000      | Jump
	// RET  |1100    |000  |111  |000000      | Return
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JMP:
		mc.State.Program = regs[instruction.SR1()]

	// JSR  |0100    |1|PCoffset11            | Jump to subroutine
	// JSRR |0100    |0|00 |BaseR|000000      | Jump to subroutine register
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JSR:
		// R7 is written first, so JSRR R7 lands on the next instruction
		regs[7] = mc.State.Program

		if instruction.JSRMode() {
			mc.State.Program += instruction.PCOffset11()
		} else {
			mc.State.Program = regs[instruction.SR1()]
		}

	// LD   |0010    |DR   |PCoffset9         | Load
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LD:
		dest := instruction.DR()

		regs[dest] = mc.read(mc.State.Program + instruction.PCOffset9())

		mc.State.setFlags(dest)

	// LDI  |1010    |DR   |PCoffset9         | Load indirect
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LDI:
		dest := instruction.DR()

		regs[dest] = mc.read(mc.read(mc.State.Program + instruction.PCOffset9()))

		mc.State.setFlags(dest)

	// LDR  |0110    |DR   |BaseR|offset6     | Load base+offset
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LDR:
		dest := instruction.DR()

		regs[dest] = mc.read(regs[instruction.SR1()] + instruction.Offset6())

		mc.State.setFlags(dest)

	// LEA  |1110    |DR   |PCoffset9         | Load effective address
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LEA:
		dest := instruction.DR()

		regs[dest] = mc.State.Program + instruction.PCOffset9()

		mc.State.setFlags(dest)

	// ST   |0011    |SR   |PCoffset9         | Store
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ST:
		mc.write(
			mc.State.Program+instruction.PCOffset9(),
			regs[instruction.DR()],
		)

	// STI  |1011    |SR   |PCoffset9         | Store indirect
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_STI:
		mc.write(
			mc.read(mc.State.Program+instruction.PCOffset9()),
			regs[instruction.DR()],
		)

	// STR  |0111    |SR   |BaseR|offset6     | Store base+offset
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_STR:
		mc.write(
			regs[instruction.SR1()]+instruction.Offset6(),
			regs[instruction.DR()],
		)

	// TRAP |1111    |0000   |trapvect8       | System call
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_TRAP:
		regs[7] = mc.State.Program
		err = mc.trap(addr, instruction.TrapVector())

	// RTI  |1000    |000000000000            | Return from interrupt
	// RES  |1101    |                        | Reserved (illegal)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	default:
		mc.State.Status = Faulted
		return &IllegalOpcodeError{Addr: addr, Instruction: instruction}
	}

	if err == nil && mc.ioErr != nil {
		err = &ConsoleError{Addr: addr, Err: mc.ioErr}
	}

	mc.ioErr = nil

	return err
}

// Run steps the machine until it halts, faults or ctx is cancelled. The
// context is checked between instructions. Unhandled trap vectors are logged
// and collected in Anomalies without stopping execution; any other error stops
// the machine and is returned.
func (mc *Machine) Run(ctx context.Context) error {
	if mc.State.Status != Running {
		return ErrNotRunning
	}

	for mc.State.Status == Running {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrInterrupted, err)
		}

		err := mc.Step()

		if err == nil {
			continue
		}

		var trapErr *UnhandledTrapError

		if errors.As(err, &trapErr) {
			mc.Anomalies = append(mc.Anomalies, err)
			mc.logger().WithFields(logrus.Fields{
				"pc":     fmt.Sprintf("%#04x", trapErr.Addr),
				"vector": fmt.Sprintf("%#02x", trapErr.Vector),
			}).Warn("unhandled trap vector")
			continue
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ErrInterrupted, ctxErr)
		}

		mc.State.Status = Faulted

		return err
	}

	return nil
}
