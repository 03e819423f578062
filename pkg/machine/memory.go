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

func (mc *MachineState) Reset() {
	for i := range mc.Registers {
		mc.Registers[i] = 0x0000
	}

	for i := range mc.Memory {
		mc.Memory[i] = 0x0000
	}

	mc.Program = MEMSPACE_USER
	mc.Condition = FLAG_ZERO
	mc.Status = Running
}

// setFlags recomputes the condition register from the current value of a
// general purpose register. Exactly one flag is left set.
func (mc *MachineState) setFlags(reg uint16) {
	value := mc.Registers[reg]

	if value == 0 {
		mc.Condition = FLAG_ZERO
	} else if value>>15 == 1 {
		mc.Condition = FLAG_NEG
	} else {
		mc.Condition = FLAG_POS
	}
}

func (mc *Machine) fetch(addr uint16) Instruction {
	return Instruction(mc.State.Memory[addr])
}

// read is the memory bus load. Reading KBSR polls the console and latches a
// pending key into KBDR, so consecutive KBSR reads are not idempotent.
func (mc *Machine) read(addr uint16) uint16 {
	if addr == DEV_KBSR {
		mc.State.Memory[DEV_KBSR] = 0

		if mc.Console != nil && mc.Console.KeyAvailable() {
			key, err := mc.Console.ReadChar()

			if err != nil {
				mc.ioErr = err
			} else {
				mc.State.Memory[DEV_KBSR] = 1 << 15
				mc.State.Memory[DEV_KBDR] = uint16(key)
			}
		}
	}

	value := mc.State.Memory[addr]

	if mc.Tracer != nil {
		mc.Tracer.Read(addr, value)
	}

	return value
}

func (mc *Machine) write(addr uint16, value uint16) {
	mc.State.Memory[addr] = value

	if mc.Tracer != nil {
		mc.Tracer.Write(addr, value)
	}
}
