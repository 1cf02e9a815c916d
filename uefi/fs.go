// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
	"io/fs"
	"strings"
)

// EFI Protocol GUIDs
var (
	EFI_LOADED_IMAGE_PROTOCOL_GUID       = MustParseGUID("5b1b31a1-9562-11d2-8e3f-00a0c969723b")
	EFI_SIMPLE_FILE_SYSTEM_PROTOCOL_GUID = MustParseGUID("964e5b22-6459-11d2-8e39-00a0c969723b")
)

// EFI Protocol revisions
const (
	EFI_LOADED_IMAGE_PROTOCOL_REVISION       = 0x00001000
	EFI_SIMPLE_FILE_SYSTEM_PROTOCOL_REVISION = 0x00010000
)

// loadedImage represents an EFI Loaded Image Protocol instance.
type loadedImage struct {
	Revision        uint32
	_               uint32
	ParentHandle    uint64
	SystemTable     uint64
	DeviceHandle    uint64
	FilePath        uint64
	_               uint64
	LoadOptionsSize uint32
	_               uint32
	LoadOptions     uint64
	ImageBase       uint64
	ImageSize       uint64
	ImageCodeType   uint64
	ImageDataType   uint64
	Unload          uint64
}

// GUID implements the [Protocol] interface.
func (img *loadedImage) GUID() GUID {
	return EFI_LOADED_IMAGE_PROTOCOL_GUID
}

// simpleFileSystem represents an EFI Simple File System Protocol instance.
type simpleFileSystem struct {
	Revision   uint64
	OpenVolume uint64
}

// GUID implements the [Protocol] interface.
func (v *simpleFileSystem) GUID() GUID {
	return EFI_SIMPLE_FILE_SYSTEM_PROTOCOL_GUID
}

// Volume represents an EFI Simple File System Protocol instance, the entry
// point producing the root directory of a file system.
type Volume struct {
	fs   *simpleFileSystem
	addr uint64
}

// Open calls EFI_SIMPLE_FILE_SYSTEM_PROTOCOL.OpenVolume(), returning the
// owned root directory of the volume, [File.Close] must be called on it to
// release the firmware allocated handle.
func (v *Volume) Open() (root *File, err error) {
	var addr uint64

	status := callService(ptrval(&v.fs.OpenVolume),
		[]uint64{
			v.addr,
			ptrval(&addr),
		},
	)

	if err = parseStatus(status); err != nil {
		return
	}

	h, err := openFileHandle(addr)

	if err != nil {
		return
	}

	return &File{
		name:  `\`,
		owner: NewOwned(h),
	}, nil
}

// FS implements the [fs.FS] interface for an EFI Simple File System volume.
type FS struct {
	image  *loadedImage
	volume *File
}

// Open opens the named file with read access, [File.Close] must be called
// to release any associated resources.
func (root *FS) Open(name string) (fs.File, error) {
	f, err := root.OpenFile(name, EFI_FILE_MODE_READ, 0)

	if err != nil {
		return nil, err
	}

	return fs.File(f), nil
}

// OpenFile opens the named file with the argument EFI_FILE_MODE_* flags and,
// when creating, EFI_FILE_* attributes. The name follows the [fs.ValidPath]
// syntax, separator conversion is performed here.
func (root *FS) OpenFile(name string, mode uint64, attributes uint64) (f *File, err error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	if root.volume == nil {
		return nil, errors.New("invalid file system instance")
	}

	if f, err = root.volume.Open(strings.ReplaceAll(name, "/", `\`), mode, attributes); err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}

	return
}

// Root returns an EFI Simple File System instance for the current EFI image
// root volume, the one the running application was loaded from.
func (s *Services) Root() (root *FS, err error) {
	image := &loadedImage{}

	if _, err = s.Boot.InstanceFromHandle(s.imageHandle, image); err != nil {
		return
	}

	if image.Revision != EFI_LOADED_IMAGE_PROTOCOL_REVISION {
		return nil, errors.New("invalid protocol revision")
	}

	volume, err := s.Volume(image.DeviceHandle)

	if err != nil {
		return
	}

	f, err := volume.Open()

	if err != nil {
		return
	}

	return &FS{
		image:  image,
		volume: f,
	}, nil
}

// Volume returns the EFI Simple File System instance installed on the
// argument device handle.
func (s *Services) Volume(handle uint64) (v *Volume, err error) {
	v = &Volume{
		fs: &simpleFileSystem{},
	}

	if v.addr, err = s.Boot.InstanceFromHandle(handle, v.fs); err != nil {
		return
	}

	if v.fs.Revision != EFI_SIMPLE_FILE_SYSTEM_PROTOCOL_REVISION {
		return nil, errors.New("invalid protocol revision")
	}

	return
}
