// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"runtime"
	"unicode/utf16"
)

const (
	// EFI ConOut offset for OutputString
	outputString = 0x08
	// EFI ConIn offset for ReadKeyStroke
	readKeyStroke = 0x08
)

// InputKey represents an EFI Input Key descriptor.
type InputKey struct {
	ScanCode    uint16
	UnicodeChar [2]byte
}

// Console implements the [io.ReadWriter] interface over the EFI Simple Text
// Input/Output protocols.
type Console struct {
	// ForceLine controls whether line feeds (LF) should be supplemented
	// with a carriage return (CR).
	ForceLine bool

	// ReplaceTabs controls whether Console I/O output should have Tab
	// characters replaced with a number of spaces.
	ReplaceTabs int

	// In is the EFI_SIMPLE_TEXT_INPUT_PROTOCOL instance address.
	In uint64

	// Out is the EFI_SIMPLE_TEXT_OUTPUT_PROTOCOL instance address.
	Out uint64
}

// Input calls EFI_SIMPLE_TEXT_INPUT_PROTOCOL.ReadKeyStroke().
func (c *Console) Input(k *InputKey) (status Status) {
	if c.In == 0 {
		return EFI_UNSUPPORTED
	}

	return callService(c.In+readKeyStroke,
		[]uint64{
			c.In,
			ptrval(k),
		},
	)
}

// Output calls EFI_SIMPLE_TEXT_OUTPUT_PROTOCOL.OutputString() with the
// argument UTF-16 little-endian buffer, termination is supplemented as
// needed.
func (c *Console) Output(p []byte) (status Status) {
	if c.Out == 0 {
		return EFI_UNSUPPORTED
	}

	if len(p)%2 != 0 {
		p = append(p, 0x00)
	}

	p = append(p, []byte{0x00, 0x00}...)

	return callService(c.Out+outputString,
		[]uint64{
			c.Out,
			ptrval(&p[0]),
		},
	)
}

// Read available keystrokes to buffer from console, blocking until at least
// one key is available.
func (c *Console) Read(p []byte) (n int, err error) {
	k := &InputKey{}

	for n+1 < len(p) {
		status := c.Input(k)

		switch {
		case status == EFI_SUCCESS:
			copy(p[n:], k.UnicodeChar[:])
			n += 2
		case status == EFI_NOT_READY:
			if n > 0 {
				return
			}

			runtime.Gosched()
		default:
			return n, parseStatus(status)
		}
	}

	return
}

// Write data from buffer to console, converting from UTF-8 to the UTF-16
// strings expected by the firmware console.
func (c *Console) Write(p []byte) (n int, err error) {
	var s []byte

	if len(p) == 0 {
		return
	}

	for _, r := range utf16.Encode([]rune(string(p))) {
		if r == 0x09 && c.ReplaceTabs > 0 { // Tab
			for i := 0; i < c.ReplaceTabs; i++ {
				s = append(s, []byte{0x20, 0x00}...) // Space
			}
			continue
		}

		s = append(s, byte(r&0xff))
		s = append(s, byte(r>>8))

		if r == 0x0a && c.ForceLine { // LF
			s = append(s, []byte{0x0d, 0x00}...) // CR
		}
	}

	if status := c.Output(s); status != EFI_SUCCESS {
		return n, parseStatus(status)
	}

	return len(p), nil
}
