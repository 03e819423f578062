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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lassandro/lc3vm/pkg/console"
	"github.com/lassandro/lc3vm/pkg/encoding"
	"github.com/lassandro/lc3vm/pkg/machine"
)

const (
	exitHalt      = 0
	exitLoad      = 1
	exitUsage     = 2
	exitFault     = 3
	exitTerminal  = 4
	exitInterrupt = -2
)

const usage = "lc3vm [flags] image-file [image-file...]"

type config struct {
	help       bool
	verbose    bool
	trace      bool
	getcPrompt bool
	start      string
	poll       time.Duration
}

// terminal is the console the CLI drives, plus raw mode control.
type terminal interface {
	machine.Console
	EnableRawMode() error
	Restore() error
}

var openTerminal = func(ctx context.Context, poll time.Duration) terminal {
	term := console.NewTerminal(ctx, os.Stdin, os.Stdout)
	term.PollTimeout = poll
	return term
}

func init() {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
}

func parseFlags(fs *flag.FlagSet, args []string) (*config, error) {
	var cfg config

	fs.BoolVar(&cfg.help, "help", false, "Displays command usage")
	fs.BoolVar(&cfg.verbose, "v", false, "Enables debug logging")
	fs.BoolVar(&cfg.trace, "trace", false, "Logs every instruction and memory access")
	fs.BoolVar(&cfg.getcPrompt, "getc-prompt", false, "Prints the input prompt for GETC as well as IN")
	fs.StringVar(&cfg.start, "start", "0x3000", "Entry address")
	fs.DurationVar(&cfg.poll, "poll", console.DefaultPollTimeout, "Keyboard status poll timeout")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func lc3vm(args []string) int {
	fs := flag.NewFlagSet("lc3vm", flag.ContinueOnError)
	cfg, err := parseFlags(fs, args)

	if err != nil {
		return exitUsage
	}

	if cfg.help {
		fmt.Println(usage)
		fs.PrintDefaults()
		return exitHalt
	}

	images := fs.Args()

	if len(images) == 0 {
		fmt.Fprintln(os.Stderr, usage)
		return exitUsage
	}

	if cfg.verbose || cfg.trace {
		logrus.SetLevel(logrus.DebugLevel)
	}

	start, err := encoding.DecodeHex(cfg.start)

	if err != nil {
		logrus.WithField("start", cfg.start).Error(err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	term := openTerminal(ctx, cfg.poll)

	mc := machine.New(term)
	mc.GetcPrompt = cfg.getcPrompt

	if cfg.trace {
		mc.Tracer = &machine.LogTracer{Logger: logrus.StandardLogger()}
	}

	for _, path := range images {
		if err := mc.LoadFile(path); err != nil {
			logrus.WithField("path", path).Error(err)
			return exitLoad
		}
	}

	mc.State.Program = start

	if err := term.EnableRawMode(); err != nil {
		logrus.WithError(err).Error("failed to enter raw mode")
		return exitTerminal
	}

	defer func() {
		if err := term.Restore(); err != nil {
			logrus.WithError(err).Error("failed to restore terminal")
		}
	}()

	return report(mc, term, mc.Run(ctx))
}

func report(mc *machine.Machine, term machine.Console, err error) int {
	var illegal *machine.IllegalOpcodeError

	if len(mc.Anomalies) > 0 {
		logrus.WithField("count", len(mc.Anomalies)).Debug("unhandled traps")
	}

	switch {
	case err == nil:
		return exitHalt

	case errors.Is(err, machine.ErrInterrupted):
		if err := term.WriteChar('\n'); err != nil {
			logrus.WithError(err).Warn("failed to write newline")
		} else if err := term.Flush(); err != nil {
			logrus.WithError(err).Warn("failed to flush console")
		}
		return exitInterrupt

	case errors.As(err, &illegal):
		logrus.WithFields(logrus.Fields{
			"pc":     fmt.Sprintf("%#04x", illegal.Addr),
			"opcode": machine.OpcodeName(illegal.Opcode()),
		}).Error(err)
		return exitFault

	default:
		logrus.WithField("status", mc.State.Status).Error(err)
		return exitFault
	}
}

func main() {
	os.Exit(lc3vm(os.Args[1:]))
}
