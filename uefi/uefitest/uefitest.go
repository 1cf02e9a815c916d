// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build !tamago

// Package uefitest provides an in-memory EFI firmware simulator for testing
// the uefi package bindings without real firmware underneath.
//
// The simulator lays out system, boot services, runtime services and
// protocol tables in process memory, with function pointer slots holding
// dispatch opcodes rather than machine code addresses, and implements the
// services required by file I/O over a volatile [Volume].
//
// Usage:
//
//	fw := uefitest.New()
//	fw.Volume.AddFile(`boot\config.txt`, []byte("..."))
//	uefi.SetFirmware(fw)
//
//	s := &uefi.Services{}
//	err := s.Init(fw.ImageHandle, fw.SystemTable())
package uefitest

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/usbarmory/go-efi/uefi"
)

// EFI Table Header Signature ("IBI SYST")
const signature = 0x5453595320494249

// service table offsets, mandated by the UEFI specification
const (
	allocatePages    = 0x028
	freePages        = 0x030
	getMemoryMap     = 0x038
	handleProtocol   = 0x098
	locateProtocol   = 0x140
	exit             = 0x0d8
	exitBootServices = 0x0e8
	setWatchdogTimer = 0x100

	resetSystem = 0x68

	outputString  = 0x08
	readKeyStroke = 0x08
)

// dispatch opcodes held in function pointer slots
const (
	opInvalid = iota + 0xefc0de00
	opHandleProtocol
	opLocateProtocol
	opGetMemoryMap
	opAllocatePages
	opFreePages
	opExit
	opExitBootServices
	opSetWatchdogTimer
	opResetSystem
	opOutputString
	opReadKeyStroke
	opOpenVolume
	opOpen
	opClose
	opDelete
	opRead
	opWrite
	opGetPosition
	opSetPosition
	opGetInfo
	opSetInfo
	opFlush
)

// Firmware simulates the EFI services required by the uefi package, it
// implements the [uefi.Firmware] interface.
type Firmware struct {
	// ImageHandle is the simulated EFI image handle.
	ImageHandle uint64

	// DeviceHandle is the handle carrying the Simple File System
	// protocol instance.
	DeviceHandle uint64

	// Volume is the simulated Simple File System volume.
	Volume *Volume

	// ConsoleOut collects UTF-16 console output.
	ConsoleOut bytes.Buffer

	// Keys holds keystrokes to be returned by console input.
	Keys []uefi.InputKey

	// WatchdogTimeout records the last SetWatchdogTimer() request.
	WatchdogTimeout uint64

	// ResetType records the last ResetSystem() request, -1 when none
	// happened.
	ResetType int

	// Exited reports whether ExitBootServices() has been invoked.
	Exited bool

	systemTable     []byte
	vendor          []byte
	bootServices    []byte
	runtimeServices []byte
	loadedImage     []byte
	configTables    []byte
	sfs             []byte
	conIn           []byte
	conOut          []byte

	handles map[uint64]*handle
	closes  map[string]int
}

// New returns a simulated firmware instance with an empty writable volume.
func New() *Firmware {
	fw := &Firmware{
		Volume:    &Volume{},
		ResetType: -1,
		handles:   make(map[uint64]*handle),
		closes:    make(map[string]int),
	}

	fw.bootServices = make([]byte, 0x200)
	putUint64(fw.bootServices, allocatePages, opAllocatePages)
	putUint64(fw.bootServices, freePages, opFreePages)
	putUint64(fw.bootServices, getMemoryMap, opGetMemoryMap)
	putUint64(fw.bootServices, handleProtocol, opHandleProtocol)
	putUint64(fw.bootServices, locateProtocol, opLocateProtocol)
	putUint64(fw.bootServices, exit, opExit)
	putUint64(fw.bootServices, exitBootServices, opExitBootServices)
	putUint64(fw.bootServices, setWatchdogTimer, opSetWatchdogTimer)

	fw.runtimeServices = make([]byte, 0x100)
	putUint64(fw.runtimeServices, resetSystem, opResetSystem)

	fw.conIn = make([]byte, 0x10)
	putUint64(fw.conIn, readKeyStroke, opReadKeyStroke)

	fw.conOut = make([]byte, 0x10)
	putUint64(fw.conOut, outputString, opOutputString)

	fw.sfs = make([]byte, 16)
	putUint64(fw.sfs, 0, 0x00010000) // EFI_SIMPLE_FILE_SYSTEM_PROTOCOL_REVISION
	putUint64(fw.sfs, 8, opOpenVolume)

	fw.ImageHandle = addr(fw.bootServices) ^ 0x1000
	fw.DeviceHandle = fw.ImageHandle + 8

	fw.loadedImage = fw.buildLoadedImage()
	fw.configTables = fw.buildConfigTables()
	fw.systemTable = fw.buildSystemTable()

	return fw
}

// SystemTable returns the simulated EFI System Table address, suitable for
// [uefi.Services.Init].
func (fw *Firmware) SystemTable() uint64 {
	return addr(fw.systemTable)
}

// Closes returns the number of EFI_FILE_PROTOCOL.Close() invocations
// received for the argument volume path (Delete() included, as it releases
// the handle). The volume root is the empty path.
func (fw *Firmware) Closes(path string) int {
	return fw.closes[path]
}

// Call implements the [uefi.Firmware] interface, dispatching a service call
// through the opcode held at the fn table slot.
func (fw *Firmware) Call(fn uint64, args []uint64) (status uint64) {
	a := make([]uint64, 6)
	copy(a, args)

	switch getUint64(fn) {
	case opHandleProtocol:
		return fw.handleProtocol(a[0], a[1], a[2])
	case opLocateProtocol:
		return fw.locateProtocol(a[0], a[2])
	case opGetMemoryMap:
		return fw.getMemoryMap(a[0], a[1], a[2], a[3], a[4])
	case opAllocatePages, opFreePages:
		return uint64(uefi.EFI_SUCCESS)
	case opExit:
		return uint64(uefi.EFI_SUCCESS)
	case opExitBootServices:
		fw.Exited = true
		return uint64(uefi.EFI_SUCCESS)
	case opSetWatchdogTimer:
		fw.WatchdogTimeout = a[0]
		return uint64(uefi.EFI_SUCCESS)
	case opResetSystem:
		fw.ResetType = int(a[0])
		return uint64(uefi.EFI_SUCCESS)
	case opOutputString:
		return fw.outputString(a[1])
	case opReadKeyStroke:
		return fw.readKeyStroke(a[1])
	case opOpenVolume:
		return fw.openVolume(a[1])
	case opOpen:
		return fw.open(a[0], a[1], a[2], a[3], a[4])
	case opClose:
		return fw.close(a[0])
	case opDelete:
		return fw.delete(a[0])
	case opRead:
		return fw.read(a[0], a[1], a[2])
	case opWrite:
		return fw.write(a[0], a[1], a[2])
	case opGetPosition:
		return fw.getPosition(a[0], a[1])
	case opSetPosition:
		return fw.setPosition(a[0], a[1])
	case opGetInfo:
		return fw.getInfo(a[0], a[1], a[2], a[3])
	case opSetInfo:
		return fw.setInfo(a[0], a[1], a[2], a[3])
	case opFlush:
		return fw.flush(a[0])
	default:
		return uint64(uefi.EFI_UNSUPPORTED)
	}
}

func (fw *Firmware) handleProtocol(handle, guidPtr, out uint64) uint64 {
	guid := getGUID(guidPtr)

	switch {
	case handle == fw.ImageHandle && guid == uefi.EFI_LOADED_IMAGE_PROTOCOL_GUID:
		putUint64(mem(out, 8), 0, addr(fw.loadedImage))
	case handle == fw.DeviceHandle && guid == uefi.EFI_SIMPLE_FILE_SYSTEM_PROTOCOL_GUID:
		putUint64(mem(out, 8), 0, addr(fw.sfs))
	default:
		return uint64(uefi.EFI_UNSUPPORTED)
	}

	return uint64(uefi.EFI_SUCCESS)
}

func (fw *Firmware) locateProtocol(guidPtr, out uint64) uint64 {
	if getGUID(guidPtr) == uefi.EFI_SIMPLE_FILE_SYSTEM_PROTOCOL_GUID {
		putUint64(mem(out, 8), 0, addr(fw.sfs))
		return uint64(uefi.EFI_SUCCESS)
	}

	return uint64(uefi.EFI_NOT_FOUND)
}

func (fw *Firmware) getMemoryMap(sizePtr, buf, keyPtr, descSizePtr, verPtr uint64) uint64 {
	m := new(bytes.Buffer)

	binary.Write(m, binary.LittleEndian, &uefi.MemoryDescriptor{
		Type:          uefi.EfiBootServicesCode,
		PhysicalStart: 0x00100000,
		NumberOfPages: 16,
	})
	binary.Write(m, binary.LittleEndian, &uefi.MemoryDescriptor{
		Type:          uefi.EfiConventionalMemory,
		PhysicalStart: 0x01000000,
		NumberOfPages: 4096,
	})

	size := getUint64(sizePtr)
	putUint64(mem(sizePtr, 8), 0, uint64(m.Len()))
	putUint64(mem(descSizePtr, 8), 0, 48)
	putUint64(mem(keyPtr, 8), 0, 0xefc0de)
	copy(mem(verPtr, 4), []byte{1, 0, 0, 0})

	if int(size) < m.Len() {
		return uint64(uefi.EFI_BUFFER_TOO_SMALL)
	}

	copy(mem(buf, m.Len()), m.Bytes())

	return uint64(uefi.EFI_SUCCESS)
}

func (fw *Firmware) outputString(p uint64) uint64 {
	if p == 0 {
		return uint64(uefi.EFI_INVALID_PARAMETER)
	}

	for i := 0; i < 0x1000; i += 2 {
		c := mem(p+uint64(i), 2)

		if c[0] == 0x00 && c[1] == 0x00 {
			break
		}

		fw.ConsoleOut.Write(c)
	}

	return uint64(uefi.EFI_SUCCESS)
}

func (fw *Firmware) readKeyStroke(p uint64) uint64 {
	if len(fw.Keys) == 0 {
		return uint64(uefi.EFI_NOT_READY)
	}

	k := fw.Keys[0]
	fw.Keys = fw.Keys[1:]

	buf := mem(p, 4)
	binary.LittleEndian.PutUint16(buf[0:2], k.ScanCode)
	copy(buf[2:4], k.UnicodeChar[:])

	return uint64(uefi.EFI_SUCCESS)
}

func (fw *Firmware) buildLoadedImage() []byte {
	type loadedImage struct {
		Revision     uint32
		_            uint32
		ParentHandle uint64
		SystemTable  uint64
		DeviceHandle uint64
		FilePath     uint64
		_            uint64
		LoadOptions  [2]uint64
		ImageBase    uint64
		ImageSize    uint64
		ImageTypes   [2]uint64
		Unload       uint64
	}

	buf := new(bytes.Buffer)

	binary.Write(buf, binary.LittleEndian, &loadedImage{
		Revision:     0x00001000,
		DeviceHandle: fw.DeviceHandle,
	})

	return buf.Bytes()
}

func (fw *Firmware) buildConfigTables() []byte {
	buf := new(bytes.Buffer)

	// ACPI 2.0 table GUID with a placeholder vendor table pointer
	guid := uefi.MustParseGUID("8868e871-e4f1-11d3-bc22-0080c73c8881")

	binary.Write(buf, binary.LittleEndian, guid)
	binary.Write(buf, binary.LittleEndian, uint64(0xfee1c0de))

	return buf.Bytes()
}

func (fw *Firmware) buildSystemTable() []byte {
	buf := new(bytes.Buffer)

	// oversized so that vendor reads never cross the allocation
	fw.vendor = make([]byte, 128)
	copy(fw.vendor, utf16Bytes("UEFITEST"))

	binary.Write(buf, binary.LittleEndian, &uefi.SystemTable{
		Header: uefi.TableHeader{
			Signature:  signature,
			Revision:   2 << 16,
			HeaderSize: 120,
		},
		FirmwareVendor:       addr(fw.vendor),
		FirmwareRevision:     1,
		ConIn:                addr(fw.conIn),
		ConOut:               addr(fw.conOut),
		RuntimeServices:      addr(fw.runtimeServices),
		BootServices:         addr(fw.bootServices),
		NumberOfTableEntries: 1,
		ConfigurationTable:   addr(fw.configTables),
	})

	return buf.Bytes()
}

// mem returns the process memory at addr as a byte slice, the simulator
// shares the address space with the code under test.
func mem(p uint64, n int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(p))), n)
}

func addr(buf []byte) uint64 {
	return uint64(uintptr(unsafe.Pointer(&buf[0])))
}

func getUint64(p uint64) uint64 {
	return binary.LittleEndian.Uint64(mem(p, 8))
}

func putUint64(buf []byte, off int, val uint64) {
	binary.LittleEndian.PutUint64(buf[off:], val)
}

func getGUID(p uint64) (guid uefi.GUID) {
	copy(guid[:], mem(p, 16))
	return
}
