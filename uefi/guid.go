// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// GUID represents an EFI GUID (Globally Unique Identifier) as a 16-byte
// array with the native EFI byte order.
//
// The registry string format (xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx) encodes
// the first three fields as big-endian while firmware stores them
// little-endian, the in-memory layout is kept here as it is the one compared
// against firmware embedded identifiers.
type GUID [16]byte

// ParseGUID parses a GUID in registry string format into its native EFI
// representation.
func ParseGUID(s string) (g GUID, err error) {
	f := strings.Split(s, "-")

	if len(f) != 5 ||
		len(f[0]) != 8 || len(f[1]) != 4 || len(f[2]) != 4 ||
		len(f[3]) != 4 || len(f[4]) != 12 {
		return GUID{}, fmt.Errorf("invalid GUID format: %q", s)
	}

	buf, err := hex.DecodeString(strings.Join(f, ""))

	if err != nil {
		return GUID{}, fmt.Errorf("invalid GUID format: %q", s)
	}

	// first three fields are stored little-endian
	g[0], g[1], g[2], g[3] = buf[3], buf[2], buf[1], buf[0]
	g[4], g[5] = buf[5], buf[4]
	g[6], g[7] = buf[7], buf[6]
	copy(g[8:], buf[8:])

	return
}

// MustParseGUID is like ParseGUID but panics on error. It is intended for
// package level GUID declarations.
func MustParseGUID(s string) GUID {
	g, err := ParseGUID(s)

	if err != nil {
		panic(err)
	}

	return g
}

// String returns the registry format string representation of the GUID.
// https://uefi.org/specs/UEFI/2.10/Apx_A_GUID_and_Time_Formats.html
func (g GUID) String() string {
	return fmt.Sprintf("%08x-%04x-%04x-%x-%x",
		binary.LittleEndian.Uint32(g[0:4]),
		binary.LittleEndian.Uint16(g[4:6]),
		binary.LittleEndian.Uint16(g[6:8]),
		g[8:10],
		g[10:16])
}

// ptrval returns the GUID buffer address for service call arguments.
func (g *GUID) ptrval() uint64 {
	return ptrval(&g[0])
}
