// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"strings"
	"testing"
	"time"
)

func TestFileInfoEncoding(t *testing.T) {
	i := &fileInfo{
		FileSize:     1024,
		PhysicalSize: 4096,
		Attribute:    EFI_FILE_ARCHIVE,
	}

	buf, err := i.encode("startup.nsh")

	if err != nil {
		t.Fatal(err)
	}

	// 11 CHAR16 characters plus terminator follow the fixed layout
	if exp := fileInfoSize + (11+1)*2; len(buf) != exp {
		t.Errorf("unexpected buffer size, %d != %d", len(buf), exp)
	}

	if i.Size != uint64(len(buf)) {
		t.Errorf("Size field must match the bytes used, %d != %d", i.Size, len(buf))
	}

	d := &fileInfo{}
	name, err := d.decode(buf)

	if err != nil {
		t.Fatal(err)
	}

	if name != "startup.nsh" {
		t.Errorf("unexpected name %q", name)
	}

	if d.FileSize != 1024 || d.PhysicalSize != 4096 || d.Attribute != EFI_FILE_ARCHIVE {
		t.Errorf("unexpected fields %+v", d)
	}
}

func TestFileInfoNameLimit(t *testing.T) {
	i := &fileInfo{}

	if _, err := i.encode(strings.Repeat("a", MaxFileName)); err == nil {
		t.Error("expected error on name exceeding the CHAR16 capacity")
	}

	if _, err := i.encode(strings.Repeat("a", MaxFileName-1)); err != nil {
		t.Errorf("maximum length name must encode (%v)", err)
	}
}

func TestFileInfoDecodeErrors(t *testing.T) {
	i := &fileInfo{}

	if _, err := i.decode(make([]byte, fileInfoSize-1)); err == nil {
		t.Error("expected error on short buffer")
	}

	// a Size field below the fixed layout is inconsistent
	buf, _ := (&fileInfo{}).encode("x")
	copy(buf[0:8], make([]byte, 8))

	if _, err := i.decode(buf); err == nil {
		t.Error("expected error on invalid Size field")
	}
}

func TestTimeConversion(t *testing.T) {
	ref := time.Date(2025, 8, 24, 13, 37, 42, 0, time.UTC)

	if got := NewTime(ref).Time(); !got.Equal(ref) {
		t.Errorf("round trip mismatch, %v != %v", got, ref)
	}

	// TimeZone is minutes behind UTC
	est := Time{Year: 2025, Month: 1, Day: 1, TimeZone: 300}
	exp := time.Date(2025, 1, 1, 5, 0, 0, 0, time.UTC)

	if got := est.Time(); !got.UTC().Equal(exp) {
		t.Errorf("time zone mismatch, %v != %v", got.UTC(), exp)
	}

	unspec := Time{Year: 2025, Month: 1, Day: 1, TimeZone: unspecifiedTimeZone}

	if got := unspec.Time(); got.Location() != time.UTC {
		t.Error("unspecified time zone must be interpreted as UTC")
	}
}
