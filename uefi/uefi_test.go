// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build !tamago

package uefi_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"io/fs"
	"testing"
	"unsafe"

	"github.com/u-root/u-root/pkg/boot/bzimage"

	"github.com/usbarmory/go-efi/uefi"
	"github.com/usbarmory/go-efi/uefi/uefitest"
)

func newServices(t *testing.T) (*uefitest.Firmware, *uefi.Services) {
	t.Helper()

	fw := uefitest.New()
	uefi.SetFirmware(fw)

	s := &uefi.Services{}

	if err := s.Init(fw.ImageHandle, fw.SystemTable()); err != nil {
		t.Fatal(err)
	}

	return fw, s
}

func TestInit(t *testing.T) {
	fw, s := newServices(t)

	if s.ImageHandle() != fw.ImageHandle {
		t.Error("unexpected image handle")
	}

	if s.Address() != fw.SystemTable() {
		t.Error("unexpected system table address")
	}

	if s.Console == nil || s.Boot == nil || s.Runtime == nil {
		t.Error("services must be wired after Init")
	}

	if vendor, err := s.SystemTable.Vendor(); err != nil || vendor != "UEFITEST" {
		t.Errorf("unexpected vendor %q (%v)", vendor, err)
	}

	// a table lacking the signature must be rejected
	buf := make([]byte, 120)
	addr := uint64(uintptr(unsafe.Pointer(&buf[0])))

	if err := (&uefi.Services{}).Init(fw.ImageHandle, addr); err == nil {
		t.Error("expected error on invalid system table")
	}
}

func TestRootReadWrite(t *testing.T) {
	fw, s := newServices(t)
	fw.Volume.AddFile(`boot\config.txt`, []byte("console=ttyS0"))

	root, err := s.Root()

	if err != nil {
		t.Fatal(err)
	}

	f, err := root.Open("boot/config.txt")

	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	buf, err := io.ReadAll(f)

	if err != nil {
		t.Fatal(err)
	}

	if string(buf) != "console=ttyS0" {
		t.Errorf("unexpected contents %q", buf)
	}

	w, err := root.OpenFile("state.bin", uefi.EFI_FILE_MODE_READ|uefi.EFI_FILE_MODE_WRITE|uefi.EFI_FILE_MODE_CREATE, 0)

	if err != nil {
		t.Fatal(err)
	}

	if _, err = w.Write([]byte("deadbeef")); err != nil {
		t.Fatal(err)
	}

	if err = w.Flush(); err != nil {
		t.Fatal(err)
	}

	if err = w.SetPosition(0); err != nil {
		t.Fatal(err)
	}

	if buf, err = io.ReadAll(w); err != nil {
		t.Fatal(err)
	}

	if string(buf) != "deadbeef" {
		t.Errorf("unexpected contents %q", buf)
	}

	if err = w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNotFound(t *testing.T) {
	_, s := newServices(t)

	root, err := s.Root()

	if err != nil {
		t.Fatal(err)
	}

	_, err = root.Open("missing.bin")

	if err == nil {
		t.Fatal("expected error")
	}

	if !errors.Is(err, uefi.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	var pathErr *fs.PathError

	if !errors.As(err, &pathErr) {
		t.Errorf("expected fs.PathError, got %T", err)
	}

	if _, err = root.Open("../escape"); !errors.Is(err, fs.ErrInvalid) {
		t.Errorf("expected fs.ErrInvalid, got %v", err)
	}
}

func TestAppend(t *testing.T) {
	fw, s := newServices(t)
	fw.Volume.AddFile(`log.txt`, []byte("hello"))

	root, err := s.Root()

	if err != nil {
		t.Fatal(err)
	}

	f, err := root.OpenFile("log.txt", uefi.EFI_FILE_MODE_READ|uefi.EFI_FILE_MODE_WRITE, 0)

	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err = f.SetPosition(uefi.PositionEOF); err != nil {
		t.Fatal(err)
	}

	// the EOF sentinel resolves to the actual end of file offset
	if pos, err := f.Position(); err != nil || pos != 5 {
		t.Fatalf("unexpected position %d (%v)", pos, err)
	}

	if _, err = f.Write([]byte(" world")); err != nil {
		t.Fatal(err)
	}

	if err = f.SetPosition(0); err != nil {
		t.Fatal(err)
	}

	buf, err := io.ReadAll(f)

	if err != nil {
		t.Fatal(err)
	}

	if string(buf) != "hello world" {
		t.Errorf("unexpected contents %q", buf)
	}
}

func TestSeek(t *testing.T) {
	fw, s := newServices(t)
	fw.Volume.AddFile(`seek.bin`, []byte("0123456789"))

	root, err := s.Root()

	if err != nil {
		t.Fatal(err)
	}

	f, err := root.OpenFile("seek.bin", uefi.EFI_FILE_MODE_READ, 0)

	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if pos, err := f.Seek(4, io.SeekStart); err != nil || pos != 4 {
		t.Fatalf("unexpected position %d (%v)", pos, err)
	}

	buf := make([]byte, 2)

	if _, err = io.ReadFull(f, buf); err != nil || string(buf) != "45" {
		t.Fatalf("unexpected read %q (%v)", buf, err)
	}

	if pos, err := f.Seek(-2, io.SeekCurrent); err != nil || pos != 4 {
		t.Fatalf("unexpected position %d (%v)", pos, err)
	}

	if pos, err := f.Seek(-4, io.SeekEnd); err != nil || pos != 6 {
		t.Fatalf("unexpected position %d (%v)", pos, err)
	}

	if _, err = io.ReadFull(f, buf); err != nil || string(buf) != "67" {
		t.Fatalf("unexpected read %q (%v)", buf, err)
	}
}

func TestCloseOnce(t *testing.T) {
	fw, s := newServices(t)
	fw.Volume.AddFile(`once.bin`, nil)

	root, err := s.Root()

	if err != nil {
		t.Fatal(err)
	}

	f, err := root.Open("once.bin")

	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err = f.Close(); err != nil {
			t.Fatal(err)
		}
	}

	if n := fw.Closes(`once.bin`); n != 1 {
		t.Errorf("close must reach firmware exactly once, got %d", n)
	}

	if _, err = f.(*uefi.File).Read(make([]byte, 1)); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("expected fs.ErrClosed, got %v", err)
	}

	if _, err = f.(*uefi.File).Open("sub.bin", uefi.EFI_FILE_MODE_READ, 0); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("expected fs.ErrClosed, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	fw, s := newServices(t)
	fw.Volume.AddFile(`stale.bin`, []byte("x"))

	root, err := s.Root()

	if err != nil {
		t.Fatal(err)
	}

	f, err := root.OpenFile("stale.bin", uefi.EFI_FILE_MODE_READ|uefi.EFI_FILE_MODE_WRITE, 0)

	if err != nil {
		t.Fatal(err)
	}

	if err = f.Delete(); err != nil {
		t.Fatal(err)
	}

	if n := fw.Closes(`stale.bin`); n != 1 {
		t.Errorf("delete must release the handle, got %d closes", n)
	}

	if _, err = root.Open("stale.bin"); !errors.Is(err, uefi.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDeleteWarning(t *testing.T) {
	fw, s := newServices(t)
	fw.Volume.AddFile(`protected.bin`, []byte("x"))
	fw.Volume.ReadOnly = true

	root, err := s.Root()

	if err != nil {
		t.Fatal(err)
	}

	f, err := root.Open("protected.bin")

	if err != nil {
		t.Fatal(err)
	}

	err = f.(*uefi.File).Delete()

	if err == nil {
		t.Fatal("expected delete failure warning")
	}

	// the handle is gone but the file is not, distinct from hard errors
	if !errors.Is(err, uefi.ErrDeleteFailure) {
		t.Errorf("expected ErrDeleteFailure, got %v", err)
	}

	var statusErr *uefi.StatusError

	if errors.As(err, &statusErr) {
		t.Errorf("a warning must not surface as StatusError (%v)", err)
	}

	if n := fw.Closes(`protected.bin`); n != 1 {
		t.Errorf("the handle must be released regardless, got %d closes", n)
	}

	if _, err = f.(*uefi.File).Read(make([]byte, 1)); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("expected fs.ErrClosed, got %v", err)
	}

	if _, err = root.Open("protected.bin"); err != nil {
		t.Errorf("the file must survive the failed removal (%v)", err)
	}
}

func TestGetInfoSizing(t *testing.T) {
	fw, s := newServices(t)
	fw.Volume.AddFile(`config.txt`, []byte("console=ttyS0"))

	root, err := s.Root()

	if err != nil {
		t.Fatal(err)
	}

	f, err := root.OpenFile("config.txt", uefi.EFI_FILE_MODE_READ, 0)

	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	buf, err := f.GetInfo(uefi.EFI_FILE_INFO_ID)

	if err != nil {
		t.Fatal(err)
	}

	// fixed layout plus "config.txt" in CHAR16, terminator included
	if exp := 80 + (10+1)*2; len(buf) != exp {
		t.Errorf("unexpected buffer size, %d != %d", len(buf), exp)
	}

	if size := binary.LittleEndian.Uint64(buf[0:8]); size != uint64(len(buf)) {
		t.Errorf("Size field must match the populated bytes, %d != %d", size, len(buf))
	}

	if _, err = f.GetInfo(uefi.EFI_FILE_SYSTEM_INFO_ID); !errors.Is(err, uefi.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}

	fi, err := f.Info()

	if err != nil {
		t.Fatal(err)
	}

	if fi.Name() != "config.txt" || fi.Size() != 13 || fi.IsDir() {
		t.Errorf("unexpected information %q %d %v", fi.Name(), fi.Size(), fi.IsDir())
	}
}

func TestSetFileInfo(t *testing.T) {
	fw, s := newServices(t)
	fw.Volume.AddFile(`old.txt`, []byte("hello world"))

	root, err := s.Root()

	if err != nil {
		t.Fatal(err)
	}

	f, err := root.OpenFile("old.txt", uefi.EFI_FILE_MODE_READ|uefi.EFI_FILE_MODE_WRITE, 0)

	if err != nil {
		t.Fatal(err)
	}

	fi, err := f.Info()

	if err != nil {
		t.Fatal(err)
	}

	fi.SetSize(5)
	fi.Rename("new.txt")

	if err = f.SetFileInfo(fi); err != nil {
		t.Fatal(err)
	}

	if err = f.Close(); err != nil {
		t.Fatal(err)
	}

	buf, err := fs.ReadFile(root, "new.txt")

	if err != nil {
		t.Fatal(err)
	}

	if string(buf) != "hello" {
		t.Errorf("unexpected contents %q", buf)
	}

	if _, err = root.Open("old.txt"); !errors.Is(err, uefi.ErrNotFound) {
		t.Errorf("expected ErrNotFound under the old name, got %v", err)
	}
}

func TestReadDir(t *testing.T) {
	fw, s := newServices(t)
	fw.Volume.AddFile(`boot\alpha.cfg`, []byte("a"))
	fw.Volume.AddFile(`boot\bravo.cfg`, []byte("b"))
	fw.Volume.MkDir(`boot\grub`)

	root, err := s.Root()

	if err != nil {
		t.Fatal(err)
	}

	d, err := root.Open("boot")

	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	dir, ok := d.(fs.ReadDirFile)

	if !ok {
		t.Fatal("directories must implement fs.ReadDirFile")
	}

	entries, err := dir.ReadDir(-1)

	if err != nil {
		t.Fatal(err)
	}

	if len(entries) != 3 {
		t.Fatalf("unexpected entry count %d", len(entries))
	}

	exp := []string{"alpha.cfg", "bravo.cfg", "grub"}

	for i, e := range entries {
		if e.Name() != exp[i] {
			t.Errorf("unexpected entry %q != %q", e.Name(), exp[i])
		}

		if e.IsDir() != (e.Name() == "grub") {
			t.Errorf("unexpected directory flag on %q", e.Name())
		}
	}

	// the position only rewinds to the start on directories
	if err = d.(*uefi.File).SetPosition(0); err != nil {
		t.Fatal(err)
	}

	if err = d.(*uefi.File).SetPosition(1); !errors.Is(err, uefi.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}

	if entries, err = dir.ReadDir(2); err != nil || len(entries) != 2 {
		t.Fatalf("unexpected batch %d (%v)", len(entries), err)
	}

	if entries, err = dir.ReadDir(2); err != nil || len(entries) != 1 {
		t.Fatalf("unexpected batch %d (%v)", len(entries), err)
	}

	if _, err = dir.ReadDir(2); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestConsole(t *testing.T) {
	fw, s := newServices(t)

	if _, err := s.Console.Write([]byte("ok\n")); err != nil {
		t.Fatal(err)
	}

	// UTF-16, with the line feed supplemented by a carriage return
	exp := []byte{'o', 0x00, 'k', 0x00, 0x0a, 0x00, 0x0d, 0x00}

	if !bytes.Equal(fw.ConsoleOut.Bytes(), exp) {
		t.Errorf("unexpected output %x", fw.ConsoleOut.Bytes())
	}

	fw.Keys = []uefi.InputKey{
		{UnicodeChar: [2]byte{'h', 0x00}},
		{UnicodeChar: [2]byte{'i', 0x00}},
	}

	buf := make([]byte, 16)
	n, err := s.Console.Read(buf)

	if err != nil {
		t.Fatal(err)
	}

	if string(buf[0:n]) != "h\x00i\x00" {
		t.Errorf("unexpected input %q", buf[0:n])
	}
}

func TestMemoryMap(t *testing.T) {
	_, s := newServices(t)

	m, err := s.Boot.GetMemoryMap()

	if err != nil {
		t.Fatal(err)
	}

	if len(m.Descriptors) != 2 {
		t.Fatalf("unexpected descriptor count %d", len(m.Descriptors))
	}

	d := m.Descriptors[1]

	if d.Type != uefi.EfiConventionalMemory {
		t.Errorf("unexpected type %d", d.Type)
	}

	if d.Size() != 4096*uefi.PageSize {
		t.Errorf("unexpected size %d", d.Size())
	}

	e, err := d.E820()

	if err != nil {
		t.Fatal(err)
	}

	if e.MemType != bzimage.RAM {
		t.Errorf("conventional memory must map to usable RAM, got %d", e.MemType)
	}
}

func TestConfigurationTables(t *testing.T) {
	_, s := newServices(t)

	c, err := s.SystemTable.ConfigurationTables()

	if err != nil {
		t.Fatal(err)
	}

	if len(c) != 1 {
		t.Fatalf("unexpected table count %d", len(c))
	}

	acpi := uefi.MustParseGUID("8868e871-e4f1-11d3-bc22-0080c73c8881")

	tab, err := s.SystemTable.LocateConfiguration(acpi)

	if err != nil {
		t.Fatal(err)
	}

	if tab.VendorTable == 0 {
		t.Error("unexpected vendor table pointer")
	}

	if _, err = s.SystemTable.LocateConfiguration(uefi.EFI_FILE_INFO_ID); err == nil {
		t.Error("expected error on absent table")
	}
}

func TestBootServices(t *testing.T) {
	fw, s := newServices(t)

	if err := s.Boot.SetWatchdogTimer(60); err != nil {
		t.Fatal(err)
	}

	if fw.WatchdogTimeout != 60 {
		t.Errorf("unexpected watchdog timeout %d", fw.WatchdogTimeout)
	}

	if err := s.Boot.ExitBootServices(); err != nil {
		t.Fatal(err)
	}

	if !fw.Exited {
		t.Error("expected ExitBootServices to reach firmware")
	}

	if err := s.Runtime.ResetSystem(uefi.EfiResetWarm); err != nil {
		t.Fatal(err)
	}

	if fw.ResetType != uefi.EfiResetWarm {
		t.Errorf("unexpected reset type %d", fw.ResetType)
	}
}

func TestLocateProtocol(t *testing.T) {
	_, s := newServices(t)

	addr, err := s.Boot.LocateProtocol(uefi.EFI_SIMPLE_FILE_SYSTEM_PROTOCOL_GUID)

	if err != nil {
		t.Fatal(err)
	}

	if addr == 0 {
		t.Error("unexpected protocol instance address")
	}

	if _, err = s.Boot.LocateProtocol(uefi.EFI_FILE_INFO_ID); !errors.Is(err, uefi.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
