// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago

package uefi

import (
	"errors"

	"github.com/usbarmory/tamago/dma"
)

// defined in efi.s
func efiCall(fn, a1, a2, a3, a4, a5, a6 uint64) (status uint64)

// callService invokes the EFI service whose function pointer is held at the
// fn service table slot, following the calling convention mandated by the
// UEFI specification (Microsoft x64 ABI).
//
// Up to 6 arguments are supported, which covers every service used by this
// package, missing arguments are passed as zero.
func callService(fn uint64, args []uint64) (status Status) {
	var a [6]uint64
	copy(a[:], args)

	return Status(efiCall(fn, a[0], a[1], a[2], a[3], a[4], a[5]))
}

// peek copies len(buf) bytes of firmware owned memory at addr into buf.
func peek(addr uint64, buf []byte) (err error) {
	if addr == 0 {
		return errors.New("invalid address")
	}

	n := len(buf) + (len(buf) % align)

	r, err := dma.NewRegion(uint(addr), n, true)

	if err != nil {
		return
	}

	ptr, mem := r.Reserve(len(buf), 0)
	defer r.Release(ptr)

	copy(buf, mem)

	return
}
