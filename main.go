// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && amd64

// The go-efi command is an interactive EFI shell exposing the uefi package
// bindings, it is meant to be launched as an UEFI application.
package main

import (
	"fmt"
	"log"
	"runtime"

	"github.com/usbarmory/go-efi/cmd"
	"github.com/usbarmory/go-efi/uefi/x64"
)

func init() {
	log.SetFlags(0)

	cmd.Banner = fmt.Sprintf("%s/%s (%s) • UEFI",
		runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func main() {
	cmd.StartTerminal()

	log.Print("exiting EFI application")

	if err := x64.UEFI.Boot.Exit(0); err != nil {
		log.Printf("could not exit EFI application, %v", err)
	}

	runtime.Exit(0)
}
