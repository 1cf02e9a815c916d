// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build !tamago

package uefi

import (
	"errors"
	"unsafe"
)

// Firmware handles EFI service calls on builds where no real firmware is
// present.
//
// The fn argument is the address of the service table slot holding the
// function pointer, args are the call arguments, pointer ones refer to
// caller memory within the same process. The package uefi/uefitest provides
// an implementation simulating the services required for file I/O.
type Firmware interface {
	Call(fn uint64, args []uint64) (status uint64)
}

var firmware Firmware

// SetFirmware registers the [Firmware] instance receiving all EFI service
// calls, it is meant for testing purposes only as non tamago builds have no
// firmware to talk to.
func SetFirmware(fw Firmware) {
	firmware = fw
}

func callService(fn uint64, args []uint64) (status Status) {
	if firmware == nil {
		return EFI_UNSUPPORTED
	}

	return Status(firmware.Call(fn, args))
}

// peek copies len(buf) bytes of memory at addr into buf, on simulated
// firmware all addresses belong to the test process itself.
func peek(addr uint64, buf []byte) (err error) {
	if addr == 0 {
		return errors.New("invalid address")
	}

	copy(buf, unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), len(buf)))

	return
}
