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

// Package console provides the host side of the machine's character device:
// a raw-mode terminal for interactive use and a plain stream for pipes and
// tests.
package console

import (
	"bufio"
	"io"
	"sync"
	"time"
)

// DefaultPollTimeout bounds how long KeyAvailable waits for input.
const DefaultPollTimeout = time.Second

type readResult struct {
	c   byte
	err error
}

// Stream is a console over an arbitrary reader and writer. A reader
// goroutine, started on first use, feeds keys through a channel so that
// KeyAvailable gives up after PollTimeout. The goroutine lives until the
// reader returns an error.
type Stream struct {
	PollTimeout time.Duration

	in      io.Reader
	out     *bufio.Writer
	keys    chan readResult
	pending *readResult
	start   sync.Once
}

func NewStream(in io.Reader, out io.Writer) *Stream {
	return &Stream{
		PollTimeout: DefaultPollTimeout,
		in:          in,
		out:         bufio.NewWriter(out),
		keys:        make(chan readResult),
	}
}

func (s *Stream) reader() {
	scratch := make([]byte, 1)

	for {
		n, err := s.in.Read(scratch)

		if n == 1 {
			s.keys <- readResult{scratch[0], nil}
		}

		if err != nil {
			s.keys <- readResult{0, err}
			return
		}
	}
}

// wait blocks until a key or read error is pending or timeout fires. A nil
// timeout waits forever.
func (s *Stream) wait(timeout <-chan time.Time) bool {
	s.start.Do(func() { go s.reader() })

	if s.pending != nil {
		return true
	}

	select {
	case r := <-s.keys:
		s.pending = &r
		return true
	case <-timeout:
		return false
	}
}

func (s *Stream) KeyAvailable() bool {
	timer := time.NewTimer(s.PollTimeout)
	defer timer.Stop()

	return s.wait(timer.C) && s.pending.err == nil
}

// ReadChar blocks for the next key. Once the reader fails, every call
// returns that error.
func (s *Stream) ReadChar() (byte, error) {
	s.wait(nil)

	r := s.pending

	if r.err == nil {
		s.pending = nil
	}

	return r.c, r.err
}

func (s *Stream) WriteChar(c byte) error {
	return s.out.WriteByte(c)
}

func (s *Stream) Flush() error {
	return s.out.Flush()
}
