// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"fmt"
)

// Status represents an EFI_STATUS code as returned by every EFI service
// call.
//
// The code space is partitioned by the top bit of the machine word: zero is
// success, values with the top bit set are errors, any other nonzero value
// is a warning (the operation was at least partially carried out).
type Status uint64

// EFI error bit
const statusErrorBit Status = 1 << 63

// EFI Status Codes
// https://uefi.org/specs/UEFI/2.10/Apx_D_Status_Codes.html
const (
	EFI_SUCCESS Status = 0

	EFI_LOAD_ERROR        = statusErrorBit | 1
	EFI_INVALID_PARAMETER = statusErrorBit | 2
	EFI_UNSUPPORTED       = statusErrorBit | 3
	EFI_BAD_BUFFER_SIZE   = statusErrorBit | 4
	EFI_BUFFER_TOO_SMALL  = statusErrorBit | 5
	EFI_NOT_READY         = statusErrorBit | 6
	EFI_DEVICE_ERROR      = statusErrorBit | 7
	EFI_WRITE_PROTECTED   = statusErrorBit | 8
	EFI_OUT_OF_RESOURCES  = statusErrorBit | 9
	EFI_VOLUME_CORRUPTED  = statusErrorBit | 10
	EFI_VOLUME_FULL       = statusErrorBit | 11
	EFI_NO_MEDIA          = statusErrorBit | 12
	EFI_MEDIA_CHANGED     = statusErrorBit | 13
	EFI_NOT_FOUND         = statusErrorBit | 14
	EFI_ACCESS_DENIED     = statusErrorBit | 15
	EFI_TIMEOUT           = statusErrorBit | 18
	EFI_ABORTED           = statusErrorBit | 21
	EFI_END_OF_FILE       = statusErrorBit | 31

	EFI_WARN_UNKNOWN_GLYPH    = 1
	EFI_WARN_DELETE_FAILURE   = 2
	EFI_WARN_WRITE_FAILURE    = 3
	EFI_WARN_BUFFER_TOO_SMALL = 4
	EFI_WARN_STALE_DATA       = 5
)

// IsError reports whether the status denotes a failed operation, which is
// the case only when the top bit of the code is set.
func (s Status) IsError() bool {
	return s&statusErrorBit != 0
}

// IsWarning reports whether the status denotes an operation which completed
// only partially, which is the case for nonzero codes with the top bit
// clear.
func (s Status) IsWarning() bool {
	return s != EFI_SUCCESS && !s.IsError()
}

// Code returns the status code stripped of the error bit.
func (s Status) Code() uint64 {
	return uint64(s &^ statusErrorBit)
}

func (s Status) String() string {
	switch s {
	case EFI_SUCCESS:
		return "EFI_SUCCESS"
	case EFI_LOAD_ERROR:
		return "EFI_LOAD_ERROR"
	case EFI_INVALID_PARAMETER:
		return "EFI_INVALID_PARAMETER"
	case EFI_UNSUPPORTED:
		return "EFI_UNSUPPORTED"
	case EFI_BAD_BUFFER_SIZE:
		return "EFI_BAD_BUFFER_SIZE"
	case EFI_BUFFER_TOO_SMALL:
		return "EFI_BUFFER_TOO_SMALL"
	case EFI_NOT_READY:
		return "EFI_NOT_READY"
	case EFI_DEVICE_ERROR:
		return "EFI_DEVICE_ERROR"
	case EFI_WRITE_PROTECTED:
		return "EFI_WRITE_PROTECTED"
	case EFI_OUT_OF_RESOURCES:
		return "EFI_OUT_OF_RESOURCES"
	case EFI_VOLUME_CORRUPTED:
		return "EFI_VOLUME_CORRUPTED"
	case EFI_VOLUME_FULL:
		return "EFI_VOLUME_FULL"
	case EFI_NO_MEDIA:
		return "EFI_NO_MEDIA"
	case EFI_MEDIA_CHANGED:
		return "EFI_MEDIA_CHANGED"
	case EFI_NOT_FOUND:
		return "EFI_NOT_FOUND"
	case EFI_ACCESS_DENIED:
		return "EFI_ACCESS_DENIED"
	case EFI_TIMEOUT:
		return "EFI_TIMEOUT"
	case EFI_ABORTED:
		return "EFI_ABORTED"
	case EFI_END_OF_FILE:
		return "EFI_END_OF_FILE"
	case EFI_WARN_DELETE_FAILURE:
		return "EFI_WARN_DELETE_FAILURE"
	case EFI_WARN_WRITE_FAILURE:
		return "EFI_WARN_WRITE_FAILURE"
	case EFI_WARN_BUFFER_TOO_SMALL:
		return "EFI_WARN_BUFFER_TOO_SMALL"
	default:
		return fmt.Sprintf("EFI_STATUS(%#x)", uint64(s))
	}
}

// StatusError is the error returned for EFI status codes with the error bit
// set, it carries the code exactly as the firmware produced it.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s (%#x)", e.Status, uint64(e.Status))
}

// Is supports matching against the package error values with [errors.Is]
// regardless of wrapping.
func (e *StatusError) Is(target error) bool {
	t, ok := target.(*StatusError)
	return ok && t.Status == e.Status
}

// Warning is the error used when a warning status must be surfaced
// distinctly from full success, as for [File.Delete]. The underlying
// operation took effect to the extent the code describes.
type Warning struct {
	Status Status
}

func (w *Warning) Error() string {
	return fmt.Sprintf("%s (%#x)", w.Status, uint64(w.Status))
}

// Is supports matching against the package error values with [errors.Is]
// regardless of wrapping.
func (w *Warning) Is(target error) bool {
	t, ok := target.(*Warning)
	return ok && t.Status == w.Status
}

// Common status errors, for use with [errors.Is].
var (
	ErrUnsupported    = &StatusError{Status: EFI_UNSUPPORTED}
	ErrBufferTooSmall = &StatusError{Status: EFI_BUFFER_TOO_SMALL}
	ErrNotReady       = &StatusError{Status: EFI_NOT_READY}
	ErrWriteProtected = &StatusError{Status: EFI_WRITE_PROTECTED}
	ErrVolumeFull     = &StatusError{Status: EFI_VOLUME_FULL}
	ErrNotFound       = &StatusError{Status: EFI_NOT_FOUND}
	ErrAccessDenied   = &StatusError{Status: EFI_ACCESS_DENIED}

	// ErrDeleteFailure reports that a handle was closed but the removal
	// of the underlying file was not honored.
	ErrDeleteFailure = &Warning{Status: EFI_WARN_DELETE_FAILURE}
)

// parseStatus converts an EFI status code in a Go error, it returns nil for
// success as well as warnings, allowing call sites to short-circuit on the
// first failed firmware call while never dropping a failure code.
func parseStatus(status Status) (err error) {
	if status.IsError() {
		return &StatusError{Status: status}
	}

	return
}

// parseWarning converts a warning status code in a Go error, it returns nil
// for success. It is used where a warning is meaningful to the caller (see
// [File.Delete]).
func parseWarning(status Status) (err error) {
	if status.IsWarning() {
		return &Warning{Status: status}
	}

	return
}
