// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package shell implements a terminal console handler for user defined
// commands.
package shell

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// CmdFn represents a command handler.
type CmdFn func(console *Interface, arg []string) (res string, err error)

// Cmd represents a shell command.
type Cmd struct {
	// Name is the command name.
	Name string

	// Args defines the number of command arguments, meant to be in a
	// comma separated list.
	Args int

	// Pattern defines the command syntax and arguments.
	Pattern *regexp.Regexp

	// Syntax defines the Help() command syntax field.
	Syntax string

	// Help defines the Help() command description field.
	Help string

	// Fn defines the command handler.
	Fn CmdFn
}

var (
	cmds = make(map[string]*Cmd)
	mu   sync.Mutex
)

// Add registers a terminal interface command.
func Add(cmd Cmd) {
	mu.Lock()
	defer mu.Unlock()

	cmds[cmd.Name] = &cmd
}

// Help returns a formatted string with instructions for all registered
// commands.
func Help() string {
	var help []string
	var maxLen int

	mu.Lock()
	defer mu.Unlock()

	for _, cmd := range cmds {
		if l := len(cmd.Name) + len(cmd.Syntax); l > maxLen {
			maxLen = l
		}
	}

	for _, cmd := range cmds {
		syntax := cmd.Name

		if len(cmd.Syntax) > 0 {
			syntax += " " + cmd.Syntax
		}

		help = append(help, fmt.Sprintf("%-*s # %s", maxLen+1, syntax, cmd.Help))
	}

	sort.Strings(help)

	return strings.Join(help, "\n")
}
