// Copyright (c) The go-efi authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
)

// ConfigurationTable represents an EFI Configuration Table entry, a GUID
// keyed pointer to a vendor table.
type ConfigurationTable struct {
	GUID        GUID
	VendorTable uint64
}

// ConfigurationTables returns the EFI Configuration Table entries.
func (d *SystemTable) ConfigurationTables() (c []*ConfigurationTable, err error) {
	t := &ConfigurationTable{}

	if d.NumberOfTableEntries == 0 || d.ConfigurationTable == 0 {
		return nil, errors.New("EFI Configuration Table is invalid")
	}

	buf, err := marshalBinary(t)

	if err != nil {
		return
	}

	entrySize := len(buf)
	tableSize := entrySize * int(d.NumberOfTableEntries)
	table := make([]byte, tableSize)

	if err = peek(d.ConfigurationTable, table); err != nil {
		return
	}

	for i := 0; i < tableSize; i += entrySize {
		if err = unmarshalBinary(table[i:i+entrySize], t); err != nil {
			return
		}

		c = append(c, t)
		t = &ConfigurationTable{}
	}

	return
}

// LocateConfiguration locates an EFI Configuration Table entry by GUID.
func (d *SystemTable) LocateConfiguration(guid GUID) (t *ConfigurationTable, err error) {
	c, err := d.ConfigurationTables()

	if err != nil {
		return
	}

	for _, t := range c {
		if t.GUID == guid {
			return t, nil
		}
	}

	return nil, errors.New("could not find configuration table")
}
