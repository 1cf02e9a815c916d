// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && amd64

package cmd

import (
	"github.com/usbarmory/go-efi/shell"
	"github.com/usbarmory/go-efi/uefi/x64"
)

// Banner represents the shell welcome message.
var Banner string

// StartTerminal starts the shell on the UEFI console, returning when a
// command handler requests termination.
func StartTerminal() {
	console := &shell.Interface{
		Banner:     Banner,
		ReadWriter: x64.UEFI.Console,
	}

	console.Start()
}
