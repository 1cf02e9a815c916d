// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
	"testing"
)

type closeRecorder struct {
	closes int
	err    error
}

func (r *closeRecorder) Close() error {
	r.closes += 1
	return r.err
}

func TestOwnedCloseOnce(t *testing.T) {
	r := &closeRecorder{}
	o := NewOwned(r)

	if o.Resource() != r {
		t.Fatal("resource must be accessible while owned")
	}

	if err := o.Close(); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := o.Close(); err != nil {
			t.Fatal(err)
		}
	}

	if r.closes != 1 {
		t.Errorf("close must be invoked exactly once, got %d", r.closes)
	}

	if o.Resource() != nil {
		t.Error("resource must not be accessible after close")
	}
}

func TestOwnedCloseError(t *testing.T) {
	r := &closeRecorder{err: errors.New("device error")}
	o := NewOwned(r)

	if err := o.Close(); err == nil {
		t.Error("close must propagate the resource error")
	}

	// the error is reported once, further closes are no-ops
	if err := o.Close(); err != nil {
		t.Errorf("unexpected error on second close (%v)", err)
	}
}

func TestOwnedRelease(t *testing.T) {
	r := &closeRecorder{}
	o := NewOwned(r)

	if o.Release() != r {
		t.Fatal("release must transfer the resource out")
	}

	if err := o.Close(); err != nil {
		t.Fatal(err)
	}

	if r.closes != 0 {
		t.Errorf("close after release must not reach the resource, got %d", r.closes)
	}

	if o.Release() != nil {
		t.Error("release after release must return the zero value")
	}
}

func TestOwnedNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on nil resource")
		}
	}()

	var r *closeRecorder
	NewOwned(r)
}
