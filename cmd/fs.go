// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && amd64

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"time"

	"github.com/usbarmory/go-efi/shell"
	"github.com/usbarmory/go-efi/uefi"
	"github.com/usbarmory/go-efi/uefi/x64"
)

func init() {
	shell.Add(shell.Cmd{
		Name:    "ls",
		Args:    1,
		Pattern: regexp.MustCompile(`^ls(?: (.+))?$`),
		Syntax:  "(path)?",
		Help:    "list directory contents",
		Fn:      lsCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "cat",
		Args:    1,
		Pattern: regexp.MustCompile(`^cat (.+)$`),
		Syntax:  "<path>",
		Help:    "show file contents",
		Fn:      catCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "stat",
		Args:    1,
		Pattern: regexp.MustCompile(`^stat (.+)$`),
		Syntax:  "<path>",
		Help:    "show file information",
		Fn:      statCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "rm",
		Args:    1,
		Pattern: regexp.MustCompile(`^rm (.+)$`),
		Syntax:  "<path>",
		Help:    "remove file",
		Fn:      rmCmd,
	})
}

func root() (*uefi.FS, error) {
	return x64.UEFI.Root()
}

func lsCmd(_ *shell.Interface, arg []string) (res string, err error) {
	var buf bytes.Buffer

	path := arg[0]

	if path == "" {
		path = "."
	}

	fsys, err := root()

	if err != nil {
		return
	}

	f, err := fsys.Open(path)

	if err != nil {
		return
	}
	defer f.Close()

	dir, ok := f.(fs.ReadDirFile)

	if !ok {
		return "", errors.New("not a directory")
	}

	entries, err := dir.ReadDir(-1)

	if err != nil {
		return
	}

	for _, e := range entries {
		fi, err := e.Info()

		if err != nil {
			return "", err
		}

		fmt.Fprintf(&buf, "%s %10d %s %s\n",
			fi.Mode(), fi.Size(), fi.ModTime().Format(time.RFC3339), e.Name())
	}

	return buf.String(), nil
}

func catCmd(_ *shell.Interface, arg []string) (res string, err error) {
	fsys, err := root()

	if err != nil {
		return
	}

	buf, err := fs.ReadFile(fsys, arg[0])

	if err != nil {
		return
	}

	return string(buf), nil
}

func statCmd(_ *shell.Interface, arg []string) (res string, err error) {
	var buf bytes.Buffer

	fsys, err := root()

	if err != nil {
		return
	}

	f, err := fsys.OpenFile(arg[0], uefi.EFI_FILE_MODE_READ, 0)

	if err != nil {
		return
	}
	defer f.Close()

	fi, err := f.Info()

	if err != nil {
		return
	}

	fmt.Fprintf(&buf, "Name .........: %s\n", fi.Name())
	fmt.Fprintf(&buf, "Size .........: %d\n", fi.Size())
	fmt.Fprintf(&buf, "Physical Size : %d\n", fi.PhysicalSize())
	fmt.Fprintf(&buf, "Attributes ...: %#x\n", fi.Attribute())
	fmt.Fprintf(&buf, "Created ......: %s\n", fi.CreateTime().Format(time.RFC3339))
	fmt.Fprintf(&buf, "Modified .....: %s\n", fi.ModTime().Format(time.RFC3339))

	return buf.String(), nil
}

func rmCmd(_ *shell.Interface, arg []string) (res string, err error) {
	fsys, err := root()

	if err != nil {
		return
	}

	f, err := fsys.OpenFile(arg[0], uefi.EFI_FILE_MODE_READ|uefi.EFI_FILE_MODE_WRITE, 0)

	if err != nil {
		return
	}

	if err = f.Delete(); err != nil {
		if errors.Is(err, uefi.ErrDeleteFailure) {
			return "", errors.New("handle closed but file not removed")
		}

		return
	}

	return "removed " + arg[0], nil
}
