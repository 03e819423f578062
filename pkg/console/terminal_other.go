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

//go:build !(linux || darwin)

package console

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// Terminal is the console on hosts without select(2). A reader goroutine
// feeds keys through a channel so that KeyAvailable can time out.
type Terminal struct {
	PollTimeout time.Duration

	ctx     context.Context
	in      *os.File
	out     *bufio.Writer
	fd      int
	log     logrus.FieldLogger
	keys    chan readResult
	pending *readResult
	start   sync.Once
	once    sync.Once

	termRestore *term.State
}

func NewTerminal(ctx context.Context, in *os.File, out io.Writer) *Terminal {
	return &Terminal{
		PollTimeout: DefaultPollTimeout,
		ctx:         ctx,
		in:          in,
		out:         bufio.NewWriter(out),
		fd:          int(in.Fd()),
		log:         logrus.StandardLogger(),
		keys:        make(chan readResult),
	}
}

func (t *Terminal) EnableRawMode() error {
	if !term.IsTerminal(t.fd) {
		t.log.Debug("input is not a terminal, raw mode skipped")
		return nil
	}

	state, err := term.MakeRaw(t.fd)

	if err != nil {
		return err
	}

	t.termRestore = state

	return nil
}

func (t *Terminal) Restore() error {
	var err error

	t.once.Do(func() {
		err = t.out.Flush()

		if t.termRestore == nil {
			return
		}

		if rerr := term.Restore(t.fd, t.termRestore); rerr != nil {
			err = rerr
		}
	})

	return err
}

func (t *Terminal) reader() {
	scratch := make([]byte, 1)

	for {
		n, err := t.in.Read(scratch)

		if n == 1 || err != nil {
			t.keys <- readResult{scratch[0], err}
		}

		if err != nil {
			return
		}
	}
}

func (t *Terminal) wait(timeout <-chan time.Time) bool {
	t.start.Do(func() { go t.reader() })

	if t.pending != nil {
		return true
	}

	select {
	case r := <-t.keys:
		t.pending = &r
		return true
	case <-timeout:
		return false
	case <-t.ctx.Done():
		return false
	}
}

func (t *Terminal) KeyAvailable() bool {
	timer := time.NewTimer(t.PollTimeout)
	defer timer.Stop()

	return t.wait(timer.C) && t.pending.err == nil
}

func (t *Terminal) ReadChar() (byte, error) {
	if !t.wait(nil) {
		return 0, t.ctx.Err()
	}

	r := t.pending

	if r.err == nil {
		t.pending = nil
	}

	return r.c, r.err
}

func (t *Terminal) WriteChar(c byte) error {
	return t.out.WriteByte(c)
}

func (t *Terminal) Flush() error {
	return t.out.Flush()
}
