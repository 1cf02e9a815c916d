// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"testing"
)

// The firmware computes table offsets positionally, a drifting Go layout
// would silently corrupt every call built on it.
func TestTableLayouts(t *testing.T) {
	for _, tt := range []struct {
		name string
		data any
		size int
	}{
		{"TableHeader", &TableHeader{}, 24},
		{"SystemTable", &SystemTable{}, 120},
		{"Time", &Time{}, 16},
		{"fileInfo", &fileInfo{}, fileInfoSize},
		{"fileProtocol", &fileProtocol{}, 88},
		{"simpleFileSystem", &simpleFileSystem{}, 16},
		{"loadedImage", &loadedImage{}, 104},
		{"MemoryDescriptor", &MemoryDescriptor{}, 48},
		{"ConfigurationTable", &ConfigurationTable{}, 24},
		{"InputKey", &InputKey{}, 4},
	} {
		buf, err := marshalBinary(tt.data)

		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}

		if len(buf) != tt.size {
			t.Errorf("%s: unexpected size, %d != %d", tt.name, len(buf), tt.size)
		}
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	d := &MemoryDescriptor{
		Type:          EfiConventionalMemory,
		PhysicalStart: 0x100000,
		NumberOfPages: 16,
		Attribute:     0xf,
	}

	buf, err := marshalBinary(d)

	if err != nil {
		t.Fatal(err)
	}

	u := &MemoryDescriptor{}

	if err = unmarshalBinary(buf, u); err != nil {
		t.Fatal(err)
	}

	if *u != *d {
		t.Errorf("round trip mismatch, %+v != %+v", u, d)
	}

	if d.PhysicalEnd() != 0x100000+16*PageSize {
		t.Errorf("unexpected physical end %#x", d.PhysicalEnd())
	}
}
