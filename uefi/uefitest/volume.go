// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build !tamago

package uefitest

import (
	"bytes"
	"encoding/binary"
	"sort"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/usbarmory/go-efi/uefi"
)

// EFI_FILE_INFO fixed layout size up to and excluding FileName
const fileInfoSize = 80

// File represents a file or directory on a simulated volume.
type File struct {
	// Name is the entry base name.
	Name string

	// Data is the file contents, nil on directories.
	Data []byte

	// Attr is the EFI_FILE_* attribute bitmask.
	Attr uint64

	// Create, Access and Modify are the entry timestamps.
	Create time.Time
	Access time.Time
	Modify time.Time
}

// Volume represents a simulated EFI Simple File System volume, paths use
// backslash separators with no leading separator, the empty path being the
// volume root.
type Volume struct {
	// ReadOnly, when set, refuses writes with EFI_WRITE_PROTECTED and
	// turns deletions into EFI_WARN_DELETE_FAILURE.
	ReadOnly bool

	files map[string]*File
}

// AddFile places a regular file on the volume, creating parent directories
// as needed.
func (v *Volume) AddFile(path string, data []byte) *File {
	f := v.add(path, uefi.EFI_FILE_ARCHIVE)
	f.Data = data

	return f
}

// MkDir places a directory on the volume, creating parent directories as
// needed.
func (v *Volume) MkDir(path string) *File {
	return v.add(path, uefi.EFI_FILE_DIRECTORY)
}

func (v *Volume) add(path string, attr uint64) *File {
	if v.files == nil {
		v.files = make(map[string]*File)
	}

	elem := strings.Split(path, `\`)

	for i := 1; i < len(elem); i++ {
		dir := strings.Join(elem[0:i], `\`)

		if _, ok := v.files[dir]; !ok {
			v.files[dir] = newFile(elem[i-1], uefi.EFI_FILE_DIRECTORY)
		}
	}

	f := newFile(elem[len(elem)-1], attr)
	v.files[path] = f

	return f
}

func newFile(name string, attr uint64) *File {
	now := time.Now()

	return &File{
		Name:   name,
		Attr:   attr,
		Create: now,
		Access: now,
		Modify: now,
	}
}

// stat resolves a path to its entry, the root directory is synthesized.
func (v *Volume) stat(path string) (*File, bool) {
	if path == "" {
		return &File{Attr: uefi.EFI_FILE_DIRECTORY}, true
	}

	f, ok := v.files[path]

	return f, ok
}

// list returns the sorted paths of the entries directly under dir.
func (v *Volume) list(dir string) (paths []string) {
	prefix := ""

	if dir != "" {
		prefix = dir + `\`
	}

	for path := range v.files {
		if !strings.HasPrefix(path, prefix) {
			continue
		}

		if strings.Contains(path[len(prefix):], `\`) {
			continue
		}

		paths = append(paths, path)
	}

	sort.Strings(paths)

	return
}

// resolve applies a File Protocol relative path to a base directory,
// honoring absolute paths and dot elements.
func resolve(base, name string) string {
	var stack []string

	if strings.HasPrefix(name, `\`) {
		base = ""
	} else if base != "" {
		stack = strings.Split(base, `\`)
	}

	for _, elem := range strings.Split(name, `\`) {
		switch elem {
		case "", ".":
		case "..":
			if len(stack) > 0 {
				stack = stack[0 : len(stack)-1]
			}
		default:
			stack = append(stack, elem)
		}
	}

	return strings.Join(stack, `\`)
}

// handle represents an open File Protocol instance on the simulated volume.
type handle struct {
	path  string
	mode  uint64
	pos   uint64
	dir   []string
	index int
	table []byte
}

// newHandle allocates a File Protocol table for the argument path and
// registers it, the table address acts as the instance handle.
func (fw *Firmware) newHandle(path string, mode uint64) uint64 {
	table := make([]byte, 88)

	slots := []uint64{
		uefi.EFI_FILE_PROTOCOL_REVISION2,
		opOpen,
		opClose,
		opDelete,
		opRead,
		opWrite,
		opGetPosition,
		opSetPosition,
		opGetInfo,
		opSetInfo,
		opFlush,
	}

	for i, val := range slots {
		putUint64(table, i*8, val)
	}

	h := &handle{
		path:  path,
		mode:  mode,
		table: table,
	}

	fw.handles[addr(table)] = h

	return addr(table)
}

func (fw *Firmware) openVolume(out uint64) uint64 {
	putUint64(mem(out, 8), 0, fw.newHandle("", uefi.EFI_FILE_MODE_READ))

	return uint64(uefi.EFI_SUCCESS)
}

func (fw *Firmware) open(this, out, pathPtr, mode, attr uint64) uint64 {
	parent, ok := fw.handles[this]

	if !ok {
		return uint64(uefi.EFI_INVALID_PARAMETER)
	}

	if dir, ok := fw.Volume.stat(parent.path); !ok || dir.Attr&uefi.EFI_FILE_DIRECTORY == 0 {
		return uint64(uefi.EFI_INVALID_PARAMETER)
	}

	path := resolve(parent.path, readUTF16(pathPtr))
	f, ok := fw.Volume.stat(path)

	switch {
	case !ok && mode&uefi.EFI_FILE_MODE_CREATE == 0:
		return uint64(uefi.EFI_NOT_FOUND)
	case !ok && fw.Volume.ReadOnly:
		return uint64(uefi.EFI_WRITE_PROTECTED)
	case !ok:
		if attr&uefi.EFI_FILE_DIRECTORY != 0 {
			fw.Volume.MkDir(path)
		} else {
			fw.Volume.AddFile(path, nil).Attr = attr | uefi.EFI_FILE_ARCHIVE
		}
	case mode&uefi.EFI_FILE_MODE_WRITE != 0 && f.Attr&uefi.EFI_FILE_READ_ONLY != 0:
		return uint64(uefi.EFI_ACCESS_DENIED)
	}

	putUint64(mem(out, 8), 0, fw.newHandle(path, mode))

	return uint64(uefi.EFI_SUCCESS)
}

func (fw *Firmware) close(this uint64) uint64 {
	h, ok := fw.handles[this]

	if !ok {
		return uint64(uefi.EFI_INVALID_PARAMETER)
	}

	delete(fw.handles, this)
	fw.closes[h.path] += 1

	return uint64(uefi.EFI_SUCCESS)
}

func (fw *Firmware) delete(this uint64) uint64 {
	h, ok := fw.handles[this]

	if !ok {
		return uint64(uefi.EFI_INVALID_PARAMETER)
	}

	delete(fw.handles, this)
	fw.closes[h.path] += 1

	f, ok := fw.Volume.stat(h.path)

	switch {
	case !ok, h.path == "":
		return uint64(uefi.EFI_WARN_DELETE_FAILURE)
	case fw.Volume.ReadOnly, f.Attr&uefi.EFI_FILE_READ_ONLY != 0:
		return uint64(uefi.EFI_WARN_DELETE_FAILURE)
	case f.Attr&uefi.EFI_FILE_DIRECTORY != 0 && len(fw.Volume.list(h.path)) > 0:
		return uint64(uefi.EFI_WARN_DELETE_FAILURE)
	}

	delete(fw.Volume.files, h.path)

	return uint64(uefi.EFI_SUCCESS)
}

func (fw *Firmware) read(this, sizePtr, buf uint64) uint64 {
	h, ok := fw.handles[this]

	if !ok {
		return uint64(uefi.EFI_INVALID_PARAMETER)
	}

	f, ok := fw.Volume.stat(h.path)

	if !ok {
		return uint64(uefi.EFI_NOT_FOUND)
	}

	if f.Attr&uefi.EFI_FILE_DIRECTORY != 0 {
		return fw.readDir(h, sizePtr, buf)
	}

	size := getUint64(sizePtr)

	if h.pos >= uint64(len(f.Data)) {
		putUint64(mem(sizePtr, 8), 0, 0)
		return uint64(uefi.EFI_SUCCESS)
	}

	n := uint64(len(f.Data)) - h.pos

	if size < n {
		n = size
	}

	copy(mem(buf, int(n)), f.Data[h.pos:h.pos+n])
	putUint64(mem(sizePtr, 8), 0, n)
	h.pos += n

	return uint64(uefi.EFI_SUCCESS)
}

// readDir transfers a single EFI_FILE_INFO entry per call, a zero transfer
// size reports that the directory has been read in full.
func (fw *Firmware) readDir(h *handle, sizePtr, buf uint64) uint64 {
	if h.dir == nil {
		h.dir = fw.Volume.list(h.path)
		h.index = 0
	}

	if h.index >= len(h.dir) {
		putUint64(mem(sizePtr, 8), 0, 0)
		return uint64(uefi.EFI_SUCCESS)
	}

	f := fw.Volume.files[h.dir[h.index]]
	info := encodeInfo(f, f.Name)

	size := getUint64(sizePtr)
	putUint64(mem(sizePtr, 8), 0, uint64(len(info)))

	if int(size) < len(info) {
		return uint64(uefi.EFI_BUFFER_TOO_SMALL)
	}

	copy(mem(buf, len(info)), info)
	h.index += 1

	return uint64(uefi.EFI_SUCCESS)
}

func (fw *Firmware) write(this, sizePtr, buf uint64) uint64 {
	h, ok := fw.handles[this]

	if !ok {
		return uint64(uefi.EFI_INVALID_PARAMETER)
	}

	f, ok := fw.Volume.stat(h.path)

	switch {
	case !ok:
		return uint64(uefi.EFI_NOT_FOUND)
	case f.Attr&uefi.EFI_FILE_DIRECTORY != 0:
		return uint64(uefi.EFI_UNSUPPORTED)
	case h.mode&uefi.EFI_FILE_MODE_WRITE == 0:
		return uint64(uefi.EFI_ACCESS_DENIED)
	case fw.Volume.ReadOnly:
		return uint64(uefi.EFI_WRITE_PROTECTED)
	}

	n := getUint64(sizePtr)

	if end := h.pos + n; end > uint64(len(f.Data)) {
		f.Data = append(f.Data, make([]byte, end-uint64(len(f.Data)))...)
	}

	copy(f.Data[h.pos:h.pos+n], mem(buf, int(n)))
	h.pos += n
	f.Modify = time.Now()

	return uint64(uefi.EFI_SUCCESS)
}

func (fw *Firmware) getPosition(this, out uint64) uint64 {
	h, ok := fw.handles[this]

	if !ok {
		return uint64(uefi.EFI_INVALID_PARAMETER)
	}

	if f, _ := fw.Volume.stat(h.path); f != nil && f.Attr&uefi.EFI_FILE_DIRECTORY != 0 {
		return uint64(uefi.EFI_UNSUPPORTED)
	}

	putUint64(mem(out, 8), 0, h.pos)

	return uint64(uefi.EFI_SUCCESS)
}

func (fw *Firmware) setPosition(this, pos uint64) uint64 {
	h, ok := fw.handles[this]

	if !ok {
		return uint64(uefi.EFI_INVALID_PARAMETER)
	}

	f, ok := fw.Volume.stat(h.path)

	if !ok {
		return uint64(uefi.EFI_NOT_FOUND)
	}

	if f.Attr&uefi.EFI_FILE_DIRECTORY != 0 {
		if pos != 0 {
			return uint64(uefi.EFI_UNSUPPORTED)
		}

		h.dir = nil
		h.pos = 0

		return uint64(uefi.EFI_SUCCESS)
	}

	if pos == uefi.PositionEOF {
		pos = uint64(len(f.Data))
	}

	h.pos = pos

	return uint64(uefi.EFI_SUCCESS)
}

func (fw *Firmware) getInfo(this, guidPtr, sizePtr, buf uint64) uint64 {
	h, ok := fw.handles[this]

	if !ok {
		return uint64(uefi.EFI_INVALID_PARAMETER)
	}

	if getGUID(guidPtr) != uefi.EFI_FILE_INFO_ID {
		return uint64(uefi.EFI_UNSUPPORTED)
	}

	f, ok := fw.Volume.stat(h.path)

	if !ok {
		return uint64(uefi.EFI_NOT_FOUND)
	}

	info := encodeInfo(f, f.Name)

	size := getUint64(sizePtr)
	putUint64(mem(sizePtr, 8), 0, uint64(len(info)))

	if buf == 0 || int(size) < len(info) {
		return uint64(uefi.EFI_BUFFER_TOO_SMALL)
	}

	copy(mem(buf, len(info)), info)

	return uint64(uefi.EFI_SUCCESS)
}

func (fw *Firmware) setInfo(this, guidPtr, size, buf uint64) uint64 {
	h, ok := fw.handles[this]

	if !ok {
		return uint64(uefi.EFI_INVALID_PARAMETER)
	}

	if getGUID(guidPtr) != uefi.EFI_FILE_INFO_ID {
		return uint64(uefi.EFI_UNSUPPORTED)
	}

	if fw.Volume.ReadOnly {
		return uint64(uefi.EFI_WRITE_PROTECTED)
	}

	f, ok := fw.Volume.stat(h.path)

	if !ok || h.path == "" {
		return uint64(uefi.EFI_ACCESS_DENIED)
	}

	if size < fileInfoSize {
		return uint64(uefi.EFI_BAD_BUFFER_SIZE)
	}

	info := mem(buf, int(size))

	fileSize := binary.LittleEndian.Uint64(info[8:16])
	attr := binary.LittleEndian.Uint64(info[72:80])
	name := decodeUTF16(info[fileInfoSize:])

	switch {
	case fileSize > uint64(len(f.Data)):
		f.Data = append(f.Data, make([]byte, fileSize-uint64(len(f.Data)))...)
	case fileSize < uint64(len(f.Data)):
		f.Data = f.Data[0:fileSize]
	}

	f.Attr = attr
	f.Modify = time.Now()

	if name != "" && name != f.Name {
		fw.rename(h, f, name)
	}

	return uint64(uefi.EFI_SUCCESS)
}

// rename moves an entry, and any children, to a new base name under the same
// parent directory.
func (fw *Firmware) rename(h *handle, f *File, name string) {
	oldPath := h.path
	newPath := name

	if i := strings.LastIndex(oldPath, `\`); i >= 0 {
		newPath = oldPath[0:i+1] + name
	}

	delete(fw.Volume.files, oldPath)
	fw.Volume.files[newPath] = f
	f.Name = name

	for path, child := range fw.Volume.files {
		if strings.HasPrefix(path, oldPath+`\`) {
			delete(fw.Volume.files, path)
			fw.Volume.files[newPath+path[len(oldPath):]] = child
		}
	}

	h.path = newPath
}

func (fw *Firmware) flush(this uint64) uint64 {
	if _, ok := fw.handles[this]; !ok {
		return uint64(uefi.EFI_INVALID_PARAMETER)
	}

	return uint64(uefi.EFI_SUCCESS)
}

// encodeInfo serializes an EFI_FILE_INFO buffer for the argument entry.
func encodeInfo(f *File, name string) []byte {
	buf := new(bytes.Buffer)

	n := utf16Bytes(name)

	info := struct {
		Size         uint64
		FileSize     uint64
		PhysicalSize uint64
		CreateTime   uefi.Time
		AccessTime   uefi.Time
		ModifyTime   uefi.Time
		Attribute    uint64
	}{
		Size:         uint64(fileInfoSize + len(n)),
		FileSize:     uint64(len(f.Data)),
		PhysicalSize: uint64(len(f.Data)),
		CreateTime:   uefi.NewTime(f.Create),
		AccessTime:   uefi.NewTime(f.Access),
		ModifyTime:   uefi.NewTime(f.Modify),
		Attribute:    f.Attr,
	}

	binary.Write(buf, binary.LittleEndian, &info)
	buf.Write(n)

	return buf.Bytes()
}

// utf16Bytes converts a string to a NUL terminated UTF-16 little-endian
// buffer.
func utf16Bytes(s string) (buf []byte) {
	for _, r := range utf16.Encode([]rune(s)) {
		buf = binary.LittleEndian.AppendUint16(buf, r)
	}

	return binary.LittleEndian.AppendUint16(buf, 0)
}

// readUTF16 reads a NUL terminated UTF-16 little-endian string from process
// memory.
func readUTF16(p uint64) string {
	var s []uint16

	for i := 0; i < 512; i++ {
		r := binary.LittleEndian.Uint16(mem(p+uint64(i*2), 2))

		if r == 0 {
			break
		}

		s = append(s, r)
	}

	return string(utf16.Decode(s))
}

// decodeUTF16 converts a NUL terminated UTF-16 little-endian buffer to a
// string.
func decodeUTF16(buf []byte) string {
	var s []uint16

	for i := 0; i+1 < len(buf); i += 2 {
		r := binary.LittleEndian.Uint16(buf[i : i+2])

		if r == 0 {
			break
		}

		s = append(s, r)
	}

	return string(utf16.Decode(s))
}
