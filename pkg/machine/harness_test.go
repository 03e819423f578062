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

package machine_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lassandro/lc3vm/pkg/machine"
)

type fakeConsole struct {
	input   []byte
	output  bytes.Buffer
	idle    int // KeyAvailable answers no this many times first
	polls   int
	flushes int
}

func (fc *fakeConsole) KeyAvailable() bool {
	fc.polls++

	if fc.idle > 0 {
		fc.idle--
		return false
	}

	return len(fc.input) > 0
}

func (fc *fakeConsole) ReadChar() (byte, error) {
	if len(fc.input) == 0 {
		return 0, io.EOF
	}

	c := fc.input[0]
	fc.input = fc.input[1:]

	return c, nil
}

func (fc *fakeConsole) WriteChar(c byte) error {
	return fc.output.WriteByte(c)
}

func (fc *fakeConsole) Flush() error {
	fc.flushes++
	return nil
}

type testMachineState struct {
	Registers [8]uint16
	Program   uint16
	Condition uint16
	Status    machine.Status
	Memory    map[uint16]uint16
}

type testCase struct {
	Name       string
	Steps      uint
	Keyboard   string
	Display    string
	GetcPrompt bool
	Input      testMachineState
	Output     testMachineState
}

// testMachineSuccess runs test.Steps instructions from test.Input and checks
// the whole machine against test.Output. An Output.Condition of zero means
// the condition register must be left as it was. Memory not named in either
// map must stay zero.
func testMachineSuccess(t *testing.T, test *testCase) {
	if test.Input.Condition > 0x7 {
		panic("Condition must be 0x7 or lower")
	}

	con := &fakeConsole{input: []byte(test.Keyboard)}
	mc := machine.New(con)
	mc.GetcPrompt = test.GetcPrompt

	mc.State.Registers = test.Input.Registers
	mc.State.Program = test.Input.Program

	if test.Input.Condition != 0 {
		mc.State.Condition = test.Input.Condition
	}

	initialCondition := mc.State.Condition

	for addr, value := range test.Input.Memory {
		mc.State.Memory[addr] = value
	}

	if test.Steps == 0 {
		test.Steps = 1
	}

	for i := uint(0); i < test.Steps; i++ {
		require.NoError(t, mc.Step(), "step %d", i)
	}

	for i := 0; i < 8; i++ {
		assert.Equal(
			t, test.Output.Registers[i], mc.State.Registers[i],
			"Register mismatch (test.Output.Registers[%d])", i,
		)
	}

	assert.Equal(
		t, test.Output.Program, mc.State.Program,
		"Program register mismatch (test.Output.Program)",
	)

	wantCondition := test.Output.Condition

	if wantCondition == 0 {
		wantCondition = initialCondition
	}

	assert.Equal(
		t, wantCondition, mc.State.Condition,
		"Condition flag mismatch (test.Output.Condition)",
	)

	assert.Equal(
		t, test.Output.Status, mc.State.Status,
		"Status mismatch (test.Output.Status)",
	)

	assert.Equal(
		t, test.Display, con.output.String(),
		"Display output mismatch (test.Display)",
	)

	for i, value := range mc.State.Memory {
		input, expectingInput := test.Input.Memory[uint16(i)]
		output, expectingOutput := test.Output.Memory[uint16(i)]

		if expectingOutput {
			// Value was supposed to change
			require.Equal(
				t, output, value,
				"Memory value mismatch (test.Output.Memory[%#04x])", i,
			)
		} else if expectingInput {
			// Value was supposed to remain
			require.Equal(
				t, input, value,
				"Memory value mismatch (test.Input.Memory[%#04x])", i,
			)
		} else {
			require.Zero(
				t, value, "Memory unexpectedly changed [%#04x]", i,
			)
		}
	}
}

func testSuccess(t *testing.T, tests []testCase) {
	for i := range tests {
		test := &tests[i]

		t.Run(test.Name, func(t *testing.T) {
			testMachineSuccess(t, test)
		})
	}
}
