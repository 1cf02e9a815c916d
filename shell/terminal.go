// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package shell

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"golang.org/x/term"
)

// Interface represents a terminal interface.
type Interface struct {
	// Banner represents the welcome message
	Banner string

	// Log represents the interface log file
	Log *os.File

	// ReadWriter represents the terminal connection
	ReadWriter io.ReadWriter

	// Terminal is the line oriented terminal instance, set on Start().
	Terminal *term.Terminal
}

func (console *Interface) handleLine(line string) (err error) {
	var match *Cmd
	var arg []string
	var res string

	mu.Lock()

	for _, cmd := range cmds {
		if cmd.Pattern == nil {
			if cmd.Name == line {
				match = cmd
				break
			}
		} else if m := cmd.Pattern.FindStringSubmatch(line); len(m) > 0 && (len(m)-1 == cmd.Args) {
			match = cmd
			arg = m[1:]
			break
		}
	}

	mu.Unlock()

	if match == nil {
		return errors.New("unknown command, type `help`")
	}

	if res, err = match.Fn(console, arg); err != nil {
		return
	}

	if len(res) > 0 {
		fmt.Fprintln(console.Terminal, res)
	}

	return
}

func (console *Interface) readLine() error {
	s, err := console.Terminal.ReadLine()

	if err == io.EOF {
		return err
	}

	if err != nil {
		log.Printf("readline error, %v", err)
		return nil
	}

	if err = console.handleLine(s); err != nil {
		if err == io.EOF {
			return err
		}

		fmt.Fprintf(console.Terminal, "command error, %v\n", err)
	}

	return nil
}

// Start handles registered commands over the interface ReadWriter, returning
// when a command handler issues io.EOF.
func (console *Interface) Start() {
	t := term.NewTerminal(console.ReadWriter, "")
	t.SetPrompt(string(t.Escape.Red) + "> " + string(t.Escape.Reset))

	console.Terminal = t

	Add(Cmd{
		Name: "help",
		Help: "this help",
		Fn: func(_ *Interface, _ []string) (string, error) {
			return Help(), nil
		},
	})

	fmt.Fprintf(t, "\n%s\n\n", console.Banner)
	fmt.Fprintf(t, "%s\n", Help())

	for {
		if err := console.readLine(); err != nil {
			return
		}
	}
}
