// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
)

// EFI File Protocol revisions
const (
	EFI_FILE_PROTOCOL_REVISION  = 0x00010000
	EFI_FILE_PROTOCOL_REVISION2 = 0x00020000
)

// EFI File Protocol open modes
const (
	EFI_FILE_MODE_READ   uint64 = 0x0000000000000001
	EFI_FILE_MODE_WRITE  uint64 = 0x0000000000000002
	EFI_FILE_MODE_CREATE uint64 = 1 << 63
)

// EFI File Protocol attributes
const (
	EFI_FILE_READ_ONLY uint64 = 0x01
	EFI_FILE_HIDDEN    uint64 = 0x02
	EFI_FILE_SYSTEM    uint64 = 0x04
	EFI_FILE_RESERVED  uint64 = 0x08
	EFI_FILE_DIRECTORY uint64 = 0x10
	EFI_FILE_ARCHIVE   uint64 = 0x20
)

// PositionEOF is the reserved EFI_FILE_PROTOCOL.SetPosition() offset placing
// the current position at the end of file, it is only valid on regular
// files.
const PositionEOF uint64 = 0xffffffffffffffff

// fileProtocol represents the EFI File Protocol function table, the slot
// order is mandated by the UEFI specification as firmware computes offsets
// positionally.
type fileProtocol struct {
	Revision    uint64
	Open        uint64
	Close       uint64
	Delete      uint64
	Read        uint64
	Write       uint64
	GetPosition uint64
	SetPosition uint64
	GetInfo     uint64
	SetInfo     uint64
	Flush       uint64
}

// fileHandle couples a File Protocol table view with the address of the
// instance the firmware allocated for it.
type fileHandle struct {
	addr uint64
	file *fileProtocol
}

// Close calls EFI_FILE_PROTOCOL.Close().
func (h *fileHandle) Close() error {
	status := callService(ptrval(&h.file.Close),
		[]uint64{
			h.addr,
		},
	)

	return parseStatus(status)
}

// openFileHandle overlays a File Protocol table over the instance at addr,
// validating its revision.
func openFileHandle(addr uint64) (h *fileHandle, err error) {
	h = &fileHandle{
		addr: addr,
		file: &fileProtocol{},
	}

	if err = decode(h.file, addr); err != nil {
		return nil, err
	}

	if h.file.Revision != EFI_FILE_PROTOCOL_REVISION &&
		h.file.Revision != EFI_FILE_PROTOCOL_REVISION2 {
		return nil, fmt.Errorf("invalid protocol revision (%#x)", h.file.Revision)
	}

	return
}

// File represents an open EFI File Protocol instance, a handle to a file or
// directory within a [Volume].
//
// The firmware allocated handle is held under exclusive ownership, its
// release happens exactly once through [File.Close] or [File.Delete], any
// operation after that fails with [fs.ErrClosed] rather than reaching
// firmware with a dead handle.
type File struct {
	name  string
	owner *Owned[*fileHandle]
}

func (f *File) handle() (h *fileHandle, err error) {
	if f == nil || f.owner == nil {
		return nil, errors.New("invalid file instance")
	}

	if h = f.owner.Resource(); h == nil {
		return nil, fs.ErrClosed
	}

	return
}

// Name returns the path name the file was opened with.
func (f *File) Name() string {
	return f.name
}

// Open calls EFI_FILE_PROTOCOL.Open(), opening a file relative to the
// current one, which must be an open directory. The path uses backslash
// separators, mode is a combination of the EFI_FILE_MODE_* flags and
// attributes, applied only when creating, of the EFI_FILE_* ones.
//
// The returned file is independent of the parent lifetime.
func (f *File) Open(name string, mode uint64, attributes uint64) (file *File, err error) {
	h, err := f.handle()

	if err != nil {
		return
	}

	path := toUTF16(name)

	var addr uint64

	status := callService(ptrval(&h.file.Open),
		[]uint64{
			h.addr,
			ptrval(&addr),
			ptrval(&path[0]),
			mode,
			attributes,
		},
	)

	if err = parseStatus(status); err != nil {
		return
	}

	nh, err := openFileHandle(addr)

	if err != nil {
		return
	}

	return &File{
		name:  name,
		owner: NewOwned(nh),
	}, nil
}

// Close calls EFI_FILE_PROTOCOL.Close(), releasing the handle. The call is
// issued to firmware exactly once, closing an already closed file is a
// no-op.
func (f *File) Close() (err error) {
	if f == nil || f.owner == nil {
		return errors.New("invalid file instance")
	}

	return f.owner.Close()
}

// Delete calls EFI_FILE_PROTOCOL.Delete(), closing the handle and
// requesting removal of the underlying file.
//
// The handle is released in any case, when the removal is not honored (e.g.
// write protected volume) the condition is reported as [ErrDeleteFailure],
// distinct from both success and hard failures.
func (f *File) Delete() (err error) {
	h, err := f.handle()

	if err != nil {
		return
	}

	// the firmware releases the handle regardless of the removal outcome
	f.owner.Release()

	status := callService(ptrval(&h.file.Delete),
		[]uint64{
			h.addr,
		},
	)

	if err = parseStatus(status); err != nil {
		return
	}

	return parseWarning(status)
}

// Read calls EFI_FILE_PROTOCOL.Read(), implementing the [io.Reader]
// interface. The current position advances by the transferred amount.
//
// On directories each call transfers a single directory entry information
// buffer (see [File.ReadDir]).
func (f *File) Read(p []byte) (n int, err error) {
	h, err := f.handle()

	if err != nil {
		return
	}

	if len(p) == 0 {
		return
	}

	size := uint64(len(p))

	status := callService(ptrval(&h.file.Read),
		[]uint64{
			h.addr,
			ptrval(&size),
			ptrval(&p[0]),
		},
	)

	if err = parseStatus(status); err != nil {
		return
	}

	if n = int(size); n == 0 {
		err = io.EOF
	}

	return
}

// Write calls EFI_FILE_PROTOCOL.Write(), implementing the [io.Writer]
// interface. The current position advances by the transferred amount.
func (f *File) Write(p []byte) (n int, err error) {
	h, err := f.handle()

	if err != nil {
		return
	}

	if len(p) == 0 {
		return
	}

	size := uint64(len(p))

	status := callService(ptrval(&h.file.Write),
		[]uint64{
			h.addr,
			ptrval(&size),
			ptrval(&p[0]),
		},
	)

	if err = parseStatus(status); err != nil {
		return
	}

	if n = int(size); n < len(p) {
		err = io.ErrShortWrite
	}

	return
}

// Position calls EFI_FILE_PROTOCOL.GetPosition(), returning the current
// byte offset from the start of the file.
func (f *File) Position() (position uint64, err error) {
	h, err := f.handle()

	if err != nil {
		return
	}

	status := callService(ptrval(&h.file.GetPosition),
		[]uint64{
			h.addr,
			ptrval(&position),
		},
	)

	return position, parseStatus(status)
}

// SetPosition calls EFI_FILE_PROTOCOL.SetPosition(), moving the current
// position to the absolute byte offset, [PositionEOF] places it at the end
// of file. Directories only support resetting the position to zero.
func (f *File) SetPosition(position uint64) (err error) {
	h, err := f.handle()

	if err != nil {
		return
	}

	status := callService(ptrval(&h.file.SetPosition),
		[]uint64{
			h.addr,
			position,
		},
	)

	return parseStatus(status)
}

// Seek implements the [io.Seeker] interface over
// EFI_FILE_PROTOCOL.GetPosition() and SetPosition().
func (f *File) Seek(offset int64, whence int) (position int64, err error) {
	var pos uint64

	switch whence {
	case io.SeekStart:
		pos = uint64(offset)
	case io.SeekCurrent:
		if pos, err = f.Position(); err != nil {
			return
		}

		pos = uint64(int64(pos) + offset)
	case io.SeekEnd:
		if err = f.SetPosition(PositionEOF); err != nil {
			return
		}

		if pos, err = f.Position(); err != nil {
			return
		}

		pos = uint64(int64(pos) + offset)
	default:
		return 0, fmt.Errorf("invalid whence (%d)", whence)
	}

	if err = f.SetPosition(pos); err != nil {
		return
	}

	return int64(pos), nil
}

// GetInfo calls EFI_FILE_PROTOCOL.GetInfo(), querying the metadata kind
// identified by the argument GUID.
//
// The buffer size is negotiated with the firmware: a first call with no
// buffer legitimately reports EFI_BUFFER_TOO_SMALL along with the required
// size, used to size the buffer of the call that transfers the data.
func (f *File) GetInfo(guid GUID) (buf []byte, err error) {
	h, err := f.handle()

	if err != nil {
		return
	}

	var size uint64

	status := callService(ptrval(&h.file.GetInfo),
		[]uint64{
			h.addr,
			guid.ptrval(),
			ptrval(&size),
			0,
		},
	)

	if status != EFI_BUFFER_TOO_SMALL {
		return nil, parseStatus(status)
	}

	buf = make([]byte, size)

	status = callService(ptrval(&h.file.GetInfo),
		[]uint64{
			h.addr,
			guid.ptrval(),
			ptrval(&size),
			ptrval(&buf[0]),
		},
	)

	if err = parseStatus(status); err != nil {
		return nil, err
	}

	return buf[:size], nil
}

// SetInfo calls EFI_FILE_PROTOCOL.SetInfo(), updating the metadata kind
// identified by the argument GUID.
func (f *File) SetInfo(guid GUID, buf []byte) (err error) {
	h, err := f.handle()

	if err != nil {
		return
	}

	status := callService(ptrval(&h.file.SetInfo),
		[]uint64{
			h.addr,
			guid.ptrval(),
			uint64(len(buf)),
			ptrval(&buf[0]),
		},
	)

	return parseStatus(status)
}

// Info returns the file metadata as an EFI_FILE_INFO instance.
func (f *File) Info() (fi *FileInfo, err error) {
	buf, err := f.GetInfo(EFI_FILE_INFO_ID)

	if err != nil {
		return
	}

	fi = &FileInfo{
		info: &fileInfo{},
	}

	if fi.name, err = fi.info.decode(buf); err != nil {
		return nil, err
	}

	return
}

// SetFileInfo updates the file metadata, allowing renames, size and
// attribute changes (see the FileInfo setters).
func (f *File) SetFileInfo(fi *FileInfo) (err error) {
	buf, err := fi.info.encode(fi.name)

	if err != nil {
		return
	}

	return f.SetInfo(EFI_FILE_INFO_ID, buf)
}

// Stat implements the [fs.File] interface over [File.Info].
func (f *File) Stat() (fs.FileInfo, error) {
	return f.Info()
}

// Flush calls EFI_FILE_PROTOCOL.Flush(), committing buffered writes to
// stable storage.
func (f *File) Flush() (err error) {
	h, err := f.handle()

	if err != nil {
		return
	}

	status := callService(ptrval(&h.file.Flush),
		[]uint64{
			h.addr,
		},
	)

	return parseStatus(status)
}
