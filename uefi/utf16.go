// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"encoding/binary"
	"unicode/utf16"
)

// toUTF16 converts a string to a NUL terminated UTF-16 little-endian buffer
// as expected by CHAR16* service arguments.
func toUTF16(s string) (buf []byte) {
	for _, r := range utf16.Encode([]rune(s)) {
		buf = binary.LittleEndian.AppendUint16(buf, r)
	}

	return binary.LittleEndian.AppendUint16(buf, 0)
}

// fromUTF16 converts a NUL terminated UTF-16 little-endian buffer to a
// string, conversion stops at the first NUL character or at the end of the
// buffer.
func fromUTF16(buf []byte) string {
	var s []uint16

	for i := 0; i+1 < len(buf); i += 2 {
		r := binary.LittleEndian.Uint16(buf[i:])

		if r == 0x0000 {
			break
		}

		s = append(s, r)
	}

	return string(utf16.Decode(s))
}
