// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package cmd registers the interactive console commands of the EFI shell
// application, exposing UEFI services and Simple File System access.
//
// The command handlers drive real firmware and are therefore only meant to
// be used with `GOOS=tamago GOARCH=amd64` as supported by the TamaGo
// framework for bare metal Go, see https://github.com/usbarmory/tamago. On
// any other target the package is empty.
package cmd
