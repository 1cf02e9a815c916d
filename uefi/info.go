// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"fmt"
	"io/fs"
	"time"
)

// EFI File Information GUIDs
var (
	EFI_FILE_INFO_ID        = MustParseGUID("09576e92-6d3f-11d2-8e39-00a0c969723b")
	EFI_FILE_SYSTEM_INFO_ID = MustParseGUID("09576e93-6d3f-11d2-8e39-00a0c969723b")
)

const (
	// fixed EFI_FILE_INFO size up to and excluding FileName
	fileInfoSize = 80

	// MaxFileName is the EFI_FILE_INFO FileName buffer capacity in
	// CHAR16 units, terminator included.
	MaxFileName = 256

	// EFI_UNSPECIFIED_TIMEZONE
	unspecifiedTimeZone = 0x07ff
)

// Time represents an EFI_TIME instance, the layout is mandated by the UEFI
// specification and must not be reordered.
type Time struct {
	Year       uint16
	Month      uint8
	Day        uint8
	Hour       uint8
	Minute     uint8
	Second     uint8
	_          uint8
	Nanosecond uint32
	TimeZone   int16
	Daylight   uint8
	_          uint8
}

// NewTime converts a [time.Time] to its EFI representation.
func NewTime(t time.Time) Time {
	t = t.UTC()

	return Time{
		Year:       uint16(t.Year()),
		Month:      uint8(t.Month()),
		Day:        uint8(t.Day()),
		Hour:       uint8(t.Hour()),
		Minute:     uint8(t.Minute()),
		Second:     uint8(t.Second()),
		Nanosecond: uint32(t.Nanosecond()),
	}
}

// Time converts the EFI representation to a [time.Time], times carrying an
// unspecified time zone are interpreted as UTC.
func (t Time) Time() time.Time {
	loc := time.UTC

	if t.TimeZone != 0 && t.TimeZone != unspecifiedTimeZone {
		// TimeZone is the offset, in minutes, behind UTC
		loc = time.FixedZone("EFI", -int(t.TimeZone)*60)
	}

	return time.Date(int(t.Year), time.Month(t.Month), int(t.Day),
		int(t.Hour), int(t.Minute), int(t.Second), int(t.Nanosecond), loc)
}

// fileInfo represents the fixed layout part of an EFI_FILE_INFO instance,
// the FileName buffer follows it in the information buffer.
type fileInfo struct {
	Size             uint64
	FileSize         uint64
	PhysicalSize     uint64
	CreateTime       Time
	LastAccessTime   Time
	ModificationTime Time
	Attribute        uint64
}

// decode overlays the structure over an information buffer as returned by
// EFI_FILE_PROTOCOL.GetInfo(), returning the trailing file name.
func (i *fileInfo) decode(buf []byte) (name string, err error) {
	if len(buf) < fileInfoSize {
		return "", fmt.Errorf("invalid file information buffer size (%d)", len(buf))
	}

	if err = unmarshalBinary(buf[0:fileInfoSize], i); err != nil {
		return
	}

	if i.Size < fileInfoSize {
		return "", fmt.Errorf("invalid file information size (%d)", i.Size)
	}

	n := int(i.Size)

	if n > len(buf) {
		n = len(buf)
	}

	return fromUTF16(buf[fileInfoSize:n]), nil
}

// encode serializes the structure and the argument file name to an
// information buffer suitable for EFI_FILE_PROTOCOL.SetInfo(), the Size
// field is set to the actual bytes used, name terminator included.
func (i *fileInfo) encode(name string) (buf []byte, err error) {
	n := toUTF16(name)

	if len(n) > MaxFileName*2 {
		return nil, fmt.Errorf("file name exceeds %d characters", MaxFileName-1)
	}

	i.Size = uint64(fileInfoSize + len(n))

	if buf, err = marshalBinary(i); err != nil {
		return
	}

	return append(buf, n...), nil
}

// FileInfo represents the metadata of a file or directory at the instant it
// was queried, it implements the [fs.FileInfo] interface.
type FileInfo struct {
	info *fileInfo
	name string
}

// Name returns the name of the file described by the information instance.
func (fi *FileInfo) Name() string {
	return fi.name
}

// Size returns the file size in bytes.
func (fi *FileInfo) Size() int64 {
	return int64(fi.info.FileSize)
}

// PhysicalSize returns the bytes the file occupies on the volume.
func (fi *FileInfo) PhysicalSize() int64 {
	return int64(fi.info.PhysicalSize)
}

// Attribute returns the EFI_FILE_PROTOCOL attribute bitmask.
func (fi *FileInfo) Attribute() uint64 {
	return fi.info.Attribute
}

// Mode returns the file mode bits.
func (fi *FileInfo) Mode() (mode fs.FileMode) {
	if fi.info.Attribute&EFI_FILE_READ_ONLY != 0 {
		mode = 0444
	} else {
		mode = 0666
	}

	if fi.IsDir() {
		mode |= fs.ModeDir | 0111
	}

	return
}

// ModTime returns the file modification time.
func (fi *FileInfo) ModTime() time.Time {
	return fi.info.ModificationTime.Time()
}

// CreateTime returns the file creation time.
func (fi *FileInfo) CreateTime() time.Time {
	return fi.info.CreateTime.Time()
}

// IsDir reports whether the instance describes a directory.
func (fi *FileInfo) IsDir() bool {
	return fi.info.Attribute&EFI_FILE_DIRECTORY != 0
}

// Sys returns the underlying EFI_FILE_INFO fixed layout data.
func (fi *FileInfo) Sys() any {
	return fi.info
}

// SetSize updates the file size for a [File.SetFileInfo] request, growing
// or truncating the file.
func (fi *FileInfo) SetSize(size uint64) {
	fi.info.FileSize = size
	fi.info.PhysicalSize = size
}

// SetAttribute updates the attribute bitmask for a [File.SetFileInfo]
// request.
func (fi *FileInfo) SetAttribute(attribute uint64) {
	fi.info.Attribute = attribute
}

// Rename updates the file name for a [File.SetFileInfo] request.
func (fi *FileInfo) Rename(name string) {
	fi.name = name
}
