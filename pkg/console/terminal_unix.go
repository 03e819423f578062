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

//go:build linux || darwin

package console

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/term/termios"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

const readPollInterval = 100 * time.Millisecond

// Terminal is the console on a unix tty. Input is read unbuffered so that
// select(2) on the descriptor reflects every pending key.
type Terminal struct {
	PollTimeout time.Duration

	ctx  context.Context
	in   *os.File
	out  *bufio.Writer
	fd   int
	log  logrus.FieldLogger
	raw  bool
	once sync.Once

	termRestore unix.Termios
}

// NewTerminal returns a console reading from in and writing to out. Blocking
// reads give up with ctx's error once ctx is done.
func NewTerminal(ctx context.Context, in *os.File, out io.Writer) *Terminal {
	return &Terminal{
		PollTimeout: DefaultPollTimeout,
		ctx:         ctx,
		in:          in,
		out:         bufio.NewWriter(out),
		fd:          int(in.Fd()),
		log:         logrus.StandardLogger(),
	}
}

// EnableRawMode turns off line buffering and echo. Signal generation stays
// on so an interrupt key still reaches the process. It does nothing when the
// input is not a terminal.
func (t *Terminal) EnableRawMode() error {
	if !term.IsTerminal(t.fd) {
		t.log.Debug("input is not a terminal, raw mode skipped")
		return nil
	}

	if err := termios.Tcgetattr(uintptr(t.fd), &t.termRestore); err != nil {
		return err
	}

	termstate := t.termRestore

	termstate.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR
	termstate.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN
	termstate.Cflag &^= unix.CSIZE | unix.PARENB
	termstate.Cflag |= unix.CS8

	termstate.Cc[unix.VMIN] = 0
	termstate.Cc[unix.VTIME] = 0

	if err := termios.Tcsetattr(
		uintptr(t.fd), termios.TCSANOW, &termstate,
	); err != nil {
		return err
	}

	t.raw = true
	t.log.Debug("terminal raw mode enabled")

	return nil
}

// Restore flushes pending output and puts the terminal back the way
// EnableRawMode found it. Only the first call has any effect.
func (t *Terminal) Restore() error {
	var err error

	t.once.Do(func() {
		err = t.out.Flush()

		if !t.raw {
			return
		}

		if rerr := termios.Tcsetattr(
			uintptr(t.fd), termios.TCSANOW, &t.termRestore,
		); rerr != nil {
			err = rerr
			return
		}

		t.raw = false
		t.log.Debug("terminal mode restored")
	})

	return err
}

// KeyAvailable waits at most PollTimeout for input.
func (t *Terminal) KeyAvailable() bool {
	if t.ctx.Err() != nil {
		return false
	}

	ready, err := t.poll(t.PollTimeout)

	if err != nil {
		t.log.WithError(err).Warn("keyboard poll failed")
		return false
	}

	return ready
}

func (t *Terminal) ReadChar() (byte, error) {
	scratch := make([]byte, 1)

	for {
		if err := t.ctx.Err(); err != nil {
			return 0, err
		}

		ready, err := t.poll(readPollInterval)

		if err != nil {
			return 0, err
		} else if !ready {
			continue
		}

		n, err := t.in.Read(scratch)

		if err != nil {
			return 0, err
		} else if n == 1 {
			return scratch[0], nil
		}
	}
}

func (t *Terminal) WriteChar(c byte) error {
	return t.out.WriteByte(c)
}

func (t *Terminal) Flush() error {
	return t.out.Flush()
}

func (t *Terminal) poll(timeout time.Duration) (bool, error) {
	var readfds unix.FdSet
	readfds.Zero()
	readfds.Set(t.fd)

	tv := unix.NsecToTimeval(timeout.Nanoseconds())

	n, err := unix.Select(t.fd+1, &readfds, nil, nil, &tv)

	if errors.Is(err, unix.EINTR) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	return n > 0, nil
}
