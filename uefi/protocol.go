// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

// EFI Boot Services offsets
const (
	handleProtocol = 0x098
	locateProtocol = 0x140
)

// Protocol represents the Go view of an EFI protocol instance, a fixed
// layout table of function pointer slots led by a revision field.
//
// Implementations return the identifier the firmware associates to
// instances of the protocol in its handle database, the layout is given by
// the implementing structure itself (see [BootServices.LocateInstance]).
type Protocol interface {
	GUID() GUID
}

// HandleProtocol calls EFI_BOOT_SERVICES.HandleProtocol().
func (s *BootServices) HandleProtocol(handle uint64, guid GUID) (addr uint64, err error) {
	status := callService(s.base+handleProtocol,
		[]uint64{
			handle,
			guid.ptrval(),
			ptrval(&addr),
		},
	)

	return addr, parseStatus(status)
}

// LocateProtocol calls EFI_BOOT_SERVICES.LocateProtocol().
func (s *BootServices) LocateProtocol(guid GUID) (addr uint64, err error) {
	status := callService(s.base+locateProtocol,
		[]uint64{
			guid.ptrval(),
			0,
			ptrval(&addr),
		},
	)

	return addr, parseStatus(status)
}

// InstanceFromHandle retrieves the protocol instance installed on the
// argument handle and overlays p over its table, the GUID match is performed
// by the firmware handle database.
func (s *BootServices) InstanceFromHandle(handle uint64, p Protocol) (addr uint64, err error) {
	if addr, err = s.HandleProtocol(handle, p.GUID()); err != nil {
		return
	}

	return addr, decode(p, addr)
}

// LocateInstance retrieves the first protocol instance matching the GUID of
// p from the firmware handle database and overlays p over its table.
func (s *BootServices) LocateInstance(p Protocol) (addr uint64, err error) {
	if addr, err = s.LocateProtocol(p.GUID()); err != nil {
		return
	}

	return addr, decode(p, addr)
}
