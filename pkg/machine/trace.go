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

	"github.com/sirupsen/logrus"
)

// LogTracer writes every step and bus access to a logrus logger at debug
// level.
type LogTracer struct {
	Logger logrus.FieldLogger
}

func (lt *LogTracer) Step(mc *Machine, addr uint16, instruction Instruction) {
	lt.Logger.WithFields(logrus.Fields{
		"pc":    fmt.Sprintf("%#04x", addr),
		"instr": instruction.String(),
		"cond":  fmt.Sprintf("%03b", mc.State.Condition),
	}).Debug("step")
}

func (lt *LogTracer) Read(addr uint16, value uint16) {
	lt.Logger.WithFields(logrus.Fields{
		"addr":  fmt.Sprintf("%#04x", addr),
		"value": fmt.Sprintf("%#04x", value),
	}).Debug("read")
}

func (lt *LogTracer) Write(addr uint16, value uint16) {
	lt.Logger.WithFields(logrus.Fields{
		"addr":  fmt.Sprintf("%#04x", addr),
		"value": fmt.Sprintf("%#04x", value),
	}).Debug("write")
}
