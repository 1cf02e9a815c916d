// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
	"fmt"
	"testing"
)

func TestStatusClassification(t *testing.T) {
	if EFI_SUCCESS.IsError() || EFI_SUCCESS.IsWarning() {
		t.Error("EFI_SUCCESS must be neither error nor warning")
	}

	if !EFI_NOT_FOUND.IsError() {
		t.Error("EFI_NOT_FOUND must classify as error")
	}

	if EFI_NOT_FOUND.IsWarning() {
		t.Error("EFI_NOT_FOUND must not classify as warning")
	}

	if !Status(EFI_WARN_DELETE_FAILURE).IsWarning() {
		t.Error("EFI_WARN_DELETE_FAILURE must classify as warning")
	}

	if Status(EFI_WARN_DELETE_FAILURE).IsError() {
		t.Error("EFI_WARN_DELETE_FAILURE must not classify as error")
	}

	if uint64(EFI_BUFFER_TOO_SMALL)>>63 != 1 {
		t.Error("error codes must carry the top bit")
	}

	if code := EFI_BUFFER_TOO_SMALL.Code(); code != 5 {
		t.Errorf("unexpected code, %d != 5", code)
	}
}

func TestParseStatus(t *testing.T) {
	if err := parseStatus(EFI_SUCCESS); err != nil {
		t.Errorf("success must not produce an error (%v)", err)
	}

	// warnings propagate as success, only parseWarning surfaces them
	if err := parseStatus(EFI_WARN_DELETE_FAILURE); err != nil {
		t.Errorf("warnings must not produce an error (%v)", err)
	}

	err := parseStatus(EFI_NOT_FOUND)

	if err == nil {
		t.Fatal("expected error")
	}

	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if errors.Is(err, ErrAccessDenied) {
		t.Errorf("distinct codes must not match each other")
	}
}

func TestParseWarning(t *testing.T) {
	if err := parseWarning(EFI_SUCCESS); err != nil {
		t.Errorf("success must not produce a warning (%v)", err)
	}

	err := parseWarning(EFI_WARN_DELETE_FAILURE)

	if err == nil {
		t.Fatal("expected warning")
	}

	if !errors.Is(err, ErrDeleteFailure) {
		t.Errorf("expected ErrDeleteFailure, got %v", err)
	}

	// a delete failure warning is not a hard error
	if errors.Is(err, &StatusError{Status: EFI_WARN_DELETE_FAILURE}) {
		t.Error("warnings and errors with equal codes must not match")
	}
}

func TestStatusWrapping(t *testing.T) {
	err := fmt.Errorf("open: %w", parseStatus(EFI_WRITE_PROTECTED))

	if !errors.Is(err, ErrWriteProtected) {
		t.Errorf("expected ErrWriteProtected through wrapping, got %v", err)
	}
}

func TestStatusString(t *testing.T) {
	if s := EFI_BUFFER_TOO_SMALL.String(); s != "EFI_BUFFER_TOO_SMALL" {
		t.Errorf("unexpected string %q", s)
	}

	if s := Status(statusErrorBit | 0x7f).String(); s != "EFI_STATUS(0x800000000000007f)" {
		t.Errorf("unexpected string %q", s)
	}
}
