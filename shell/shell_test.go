// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package shell

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"golang.org/x/term"
)

type pipe struct {
	bytes.Buffer
}

func (p *pipe) Read(buf []byte) (int, error) {
	return 0, nil
}

func newConsole() *Interface {
	p := &pipe{}

	console := &Interface{
		ReadWriter: p,
	}

	console.Terminal = term.NewTerminal(p, "")

	return console
}

func TestHandleLine(t *testing.T) {
	console := newConsole()

	Add(Cmd{
		Name: "ping",
		Help: "liveness test",
		Fn: func(_ *Interface, _ []string) (string, error) {
			return "pong", nil
		},
	})

	Add(Cmd{
		Name:    "echo",
		Args:    1,
		Pattern: regexp.MustCompile(`^echo (.+)$`),
		Syntax:  "<string>",
		Help:    "echo argument",
		Fn: func(_ *Interface, arg []string) (string, error) {
			return arg[0], nil
		},
	})

	if err := console.handleLine("ping"); err != nil {
		t.Fatal(err)
	}

	if err := console.handleLine("echo hello"); err != nil {
		t.Fatal(err)
	}

	if err := console.handleLine("bogus"); err == nil {
		t.Error("expected error on unknown command")
	}

	if err := console.handleLine("echo"); err == nil {
		t.Error("expected error on missing argument")
	}
}

func TestHelp(t *testing.T) {
	Add(Cmd{
		Name:   "probe",
		Syntax: "<address>",
		Help:   "probe memory",
		Fn: func(_ *Interface, _ []string) (string, error) {
			return "", nil
		},
	})

	help := Help()

	if !strings.Contains(help, "probe <address>") {
		t.Errorf("help must list syntax, got\n%s", help)
	}

	if !strings.Contains(help, "probe memory") {
		t.Errorf("help must list description, got\n%s", help)
	}
}
