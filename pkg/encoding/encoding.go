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

package encoding

import (
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidHex = errors.New("invalid hex string")

// Decodes a hexidecimal address in the formats: 0xFFFF, xFFFF, 0xFF, xFF
func DecodeHex(s string) (uint16, error) {
	if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i != 1 || s[0] != '0' {
		return 0, ErrInvalidHex
	}

	result, err := strconv.ParseUint(s, 0, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// SignExtend widens the low bitcount bits of value to 16 bits, replicating
// bit (bitcount-1) into every higher bit. Bits above bitcount are discarded.
func SignExtend(value uint16, bitcount uint16) uint16 {
	value &= ^(uint16(0xFFFF) << bitcount)

	if (value>>(bitcount-1))&0x1 == 1 {
		value |= uint16(0xFFFF) << bitcount
	}

	return value
}

// Bits returns the field of width bits starting at bit position shift.
func Bits(value uint16, shift uint16, width uint16) uint16 {
	return (value >> shift) & ^(uint16(0xFFFF) << width)
}
