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
	"fmt"

	"github.com/lassandro/lc3vm/pkg/encoding"
)

// Instruction is a raw 16-bit instruction word. Accessors pull fields from
// their fixed bit positions; offsets and immediates come back sign-extended.
//
// ---- [ 15 14 13 12 | 11 10 9 | 8 7 6 | 5 | 4 3 2 1 0 ]
// ---- [ opcode      | DR/SR   | SR1   | m | imm5/SR2  ]
type Instruction uint16

func (in Instruction) Opcode() uint16 {
	return encoding.Bits(uint16(in), 12, 4)
}

// DR is the destination register, also the source register of ST/STI/STR.
func (in Instruction) DR() uint16 {
	return encoding.Bits(uint16(in), 9, 3)
}

// SR1 is the first source register, also BaseR of LDR/STR/JMP/JSRR.
func (in Instruction) SR1() uint16 {
	return encoding.Bits(uint16(in), 6, 3)
}

func (in Instruction) SR2() uint16 {
	return encoding.Bits(uint16(in), 0, 3)
}

// Cond is the n|z|p mask of BR, laid out like the condition register.
func (in Instruction) Cond() uint16 {
	return encoding.Bits(uint16(in), 9, 3)
}

func (in Instruction) ImmMode() bool {
	return encoding.Bits(uint16(in), 5, 1) == 1
}

func (in Instruction) JSRMode() bool {
	return encoding.Bits(uint16(in), 11, 1) == 1
}

func (in Instruction) Imm5() uint16 {
	return encoding.SignExtend(uint16(in), 5)
}

func (in Instruction) Offset6() uint16 {
	return encoding.SignExtend(uint16(in), 6)
}

func (in Instruction) PCOffset9() uint16 {
	return encoding.SignExtend(uint16(in), 9)
}

func (in Instruction) PCOffset11() uint16 {
	return encoding.SignExtend(uint16(in), 11)
}

func (in Instruction) TrapVector() uint16 {
	return encoding.Bits(uint16(in), 0, 8)
}

func (in Instruction) String() string {
	return fmt.Sprintf("%s(%#04x)", OpcodeName(in.Opcode()), uint16(in))
}
