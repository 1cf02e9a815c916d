// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"bytes"
	"testing"
)

func TestParseGUID(t *testing.T) {
	g, err := ParseGUID("09576e92-6d3f-11d2-8e39-00a0c969723b")

	if err != nil {
		t.Fatal(err)
	}

	// first three fields little-endian, last two verbatim
	exp := []byte{
		0x92, 0x6e, 0x57, 0x09,
		0x3f, 0x6d,
		0xd2, 0x11,
		0x8e, 0x39,
		0x00, 0xa0, 0xc9, 0x69, 0x72, 0x3b,
	}

	if !bytes.Equal(g[:], exp) {
		t.Errorf("unexpected layout\n%x !=\n%x", g[:], exp)
	}

	if g != EFI_FILE_INFO_ID {
		t.Error("parsed GUID must equal the declared identifier")
	}
}

func TestGUIDString(t *testing.T) {
	for _, s := range []string{
		"09576e92-6d3f-11d2-8e39-00a0c969723b",
		"5b1b31a1-9562-11d2-8e3f-00a0c969723b",
		"8868e871-e4f1-11d3-bc22-0080c73c8881",
	} {
		g, err := ParseGUID(s)

		if err != nil {
			t.Fatal(err)
		}

		if g.String() != s {
			t.Errorf("round trip mismatch, %s != %s", g.String(), s)
		}
	}
}

func TestParseGUIDErrors(t *testing.T) {
	for _, s := range []string{
		"",
		"09576e92-6d3f-11d2-8e39",
		"09576e92-6d3f-11d2-8e39-00a0c969723b-ff",
		"09576e9-26d3f-11d2-8e39-00a0c969723b",
		"0957zz92-6d3f-11d2-8e39-00a0c969723b",
	} {
		if _, err := ParseGUID(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}
