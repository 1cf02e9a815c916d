// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"reflect"
)

// Closer is implemented by firmware allocated resources requiring an
// explicit release.
type Closer interface {
	Close() error
}

// Owned represents exclusive ownership of a firmware allocated resource,
// guaranteeing that its release is invoked at most once on every path.
//
// Ownership is linear: an Owned instance must not be copied, a transfer of
// responsibility is performed with [Owned.Release] after which the previous
// holder no longer triggers the release.
type Owned[T Closer] struct {
	res  T
	done bool
}

// NewOwned takes ownership of a resource obtained from a firmware open or
// create style call. It panics on nil resources as call sites must have
// already told success from failure through the returned status.
func NewOwned[T Closer](res T) *Owned[T] {
	if v := reflect.ValueOf(res); !v.IsValid() ||
		(v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && v.IsNil() {
		panic("ownership of nil resource")
	}

	return &Owned[T]{res: res}
}

// Resource returns the owned resource, the zero value is returned once
// ownership has ended through [Owned.Close] or [Owned.Release].
func (o *Owned[T]) Resource() (res T) {
	if o.done {
		return
	}

	return o.res
}

// Close releases the owned resource, invoking its close operation exactly
// once, calls after the first are no-ops.
func (o *Owned[T]) Close() (err error) {
	if o.done {
		return
	}

	o.done = true

	return o.res.Close()
}

// Release transfers the resource out of the wrapper without closing it, the
// caller becomes responsible for its release. It returns the zero value if
// ownership has already ended.
func (o *Owned[T]) Release() (res T) {
	if o.done {
		return
	}

	o.done = true

	return o.res
}
