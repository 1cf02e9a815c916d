// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
	"io"
	"io/fs"
)

// DirEntry implements the [fs.DirEntry] interface for the EFI File
// Protocol.
type DirEntry struct {
	fi *FileInfo
}

// Name returns the name of the file (or subdirectory) described by the
// entry.
func (d *DirEntry) Name() string {
	return d.fi.name
}

// IsDir reports whether the entry describes a directory.
func (d *DirEntry) IsDir() bool {
	return d.fi.IsDir()
}

// Type returns the file mode bits.
func (d *DirEntry) Type() fs.FileMode {
	return d.fi.Mode().Type()
}

// Info returns the FileInfo for the file or subdirectory described by the
// entry.
func (d *DirEntry) Info() (fs.FileInfo, error) {
	return d.fi, nil
}

// ReadDir reads the contents of the directory and returns a slice of up to
// n DirEntry values in directory order, implementing the [fs.ReadDirFile]
// interface. Subsequent calls on the same file yield further entries.
//
// Each EFI_FILE_PROTOCOL.Read() on a directory transfers a single
// EFI_FILE_INFO buffer, an empty transfer marks the end of the directory.
func (f *File) ReadDir(n int) (entries []fs.DirEntry, err error) {
	if fi, err := f.Stat(); err != nil {
		return nil, err
	} else if !fi.IsDir() {
		return nil, errors.New("not a directory")
	}

	for n <= 0 || len(entries) < n {
		buf := make([]byte, fileInfoSize+MaxFileName*2)

		if _, err = f.Read(buf); err != nil {
			break
		}

		entry := &DirEntry{
			fi: &FileInfo{
				info: &fileInfo{},
			},
		}

		if entry.fi.name, err = entry.fi.info.decode(buf); err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	if err == io.EOF {
		if n > 0 && len(entries) == 0 {
			return nil, io.EOF
		}

		err = nil
	}

	return
}
