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

// trap runs the service routine for vector. R7 already holds the return
// address. Output routines flush before returning.
func (mc *Machine) trap(addr uint16, vector uint16) error {
	var err error

	switch vector {
	case TRAP_GETC:
		err = mc.trapGetc(mc.GetcPrompt, false)

	case TRAP_IN:
		err = mc.trapGetc(true, true)

	case TRAP_OUT:
		err = mc.output(byte(mc.State.Registers[0]))

	case TRAP_PUTS:
		err = mc.trapPuts()

	case TRAP_PUTSP:
		err = mc.trapPutsp()

	case TRAP_HALT:
		mc.State.Status = Halted

		if mc.Console != nil {
			err = mc.output([]byte(HaltMessage)...)
		}

	default:
		return &UnhandledTrapError{Addr: addr, Vector: vector}
	}

	if err != nil {
		return &ConsoleError{Addr: addr, Err: err}
	}

	return nil
}

func (mc *Machine) trapGetc(prompt bool, echo bool) error {
	if mc.Console == nil {
		return ErrNoConsole
	}

	if prompt {
		if err := mc.output([]byte(InputPrompt)...); err != nil {
			return err
		}
	}

	key, err := mc.Console.ReadChar()

	if err != nil {
		return err
	}

	if echo {
		if err := mc.output(key); err != nil {
			return err
		}
	}

	mc.State.Registers[0] = uint16(key)
	mc.State.setFlags(0)

	return nil
}

// PUTS: one character per word, from R0 up to a zero word.
func (mc *Machine) trapPuts() error {
	var text []byte

	addr := mc.State.Registers[0]

	for i := 0; i < MEMSPACE_SIZE; i++ {
		value := mc.State.Memory[addr]

		if value == 0 {
			break
		}

		text = append(text, byte(value))
		addr++
	}

	return mc.output(text...)
}

// PUTSP: two characters per word, low byte first. A zero high byte ends the
// word without being printed.
func (mc *Machine) trapPutsp() error {
	var text []byte

	addr := mc.State.Registers[0]

	for i := 0; i < MEMSPACE_SIZE; i++ {
		value := mc.State.Memory[addr]

		if value == 0 {
			break
		}

		text = append(text, byte(value&0xFF))

		if high := byte(value >> 8); high != 0 {
			text = append(text, high)
		}

		addr++
	}

	return mc.output(text...)
}

func (mc *Machine) output(text ...byte) error {
	if mc.Console == nil {
		return ErrNoConsole
	}

	for _, c := range text {
		if err := mc.Console.WriteChar(c); err != nil {
			return err
		}
	}

	return mc.Console.Flush()
}
