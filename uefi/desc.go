// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"bytes"
	"encoding/binary"
)

const align = 8

func marshalBinary(data any) (buf []byte, err error) {
	b := new(bytes.Buffer)
	err = binary.Write(b, binary.LittleEndian, data)
	return b.Bytes(), err
}

func unmarshalBinary(buf []byte, data any) (err error) {
	_, err = binary.Decode(buf, binary.LittleEndian, data)
	return
}

// decode overlays the fixed layout structure data over the firmware memory
// at addr.
//
// The reinterpretation is inherently unchecked, callers must have matched
// the instance GUID through [BootServices.HandleProtocol] or
// [BootServices.LocateProtocol] (or received addr from a previously decoded
// protocol) before invoking it.
func decode(data any, addr uint64) (err error) {
	buf, err := marshalBinary(data)

	if err != nil {
		return
	}

	if err = peek(addr, buf); err != nil {
		return
	}

	return unmarshalBinary(buf, data)
}
