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
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// LoadImage copies an object image into memory. The image is a big-endian
// origin word followed by big-endian words placed from that origin upwards.
// Memory outside the image keeps its contents, so later images overwrite
// earlier ones where they overlap. Words past the top of memory and a trailing
// odd byte are ignored.
func (mc *Machine) LoadImage(reader io.Reader) (origin uint16, words int, err error) {
	buffered := bufio.NewReader(reader)
	scratch := make([]byte, 2)

	if _, err := io.ReadFull(buffered, scratch); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, 0, ErrImageTooShort
		}

		return 0, 0, err
	}

	origin = binary.BigEndian.Uint16(scratch)

	for index := int(origin); index < MEMSPACE_SIZE; index++ {
		_, err := io.ReadFull(buffered, scratch)

		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		} else if err != nil {
			return origin, words, err
		}

		mc.State.Memory[index] = binary.BigEndian.Uint16(scratch)
		words++
	}

	return origin, words, nil
}

// LoadFile loads the image at path. Errors carry the path.
func (mc *Machine) LoadFile(path string) error {
	file, err := os.Open(path)

	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}

	defer file.Close()

	origin, words, err := mc.LoadImage(file)

	if err != nil {
		return fmt.Errorf("failed to load image: %s: %w", path, err)
	}

	mc.logger().WithFields(logrus.Fields{
		"path":   path,
		"origin": fmt.Sprintf("%#04x", origin),
		"words":  words,
	}).Debug("image loaded")

	return nil
}
