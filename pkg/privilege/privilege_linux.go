// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package privilege

import (
	"errors"
	"fmt"

	"github.com/u-root/fwlog/pkg/fwerr"
	"golang.org/x/sys/unix"
)

// RawIO is the capability needed to read /dev/mem.
const RawIO = "CAP_SYS_RAWIO"

var capabilities = map[string]int{
	"CAP_DAC_READ_SEARCH": unix.CAP_DAC_READ_SEARCH,
	"CAP_SYS_RAWIO":       unix.CAP_SYS_RAWIO,
	"CAP_SYS_ADMIN":       unix.CAP_SYS_ADMIN,
}

// Firmware variables are world readable through efivarfs, so the Windows
// privilege name maps onto the capability that gates the memory device.
var aliases = map[string]string{
	SystemEnvironment: RawIO,
}

func lookup(name string) (int, bool) {
	if a, ok := aliases[name]; ok {
		name = a
	}
	c, ok := capabilities[name]
	return c, ok
}

type capSets [2]unix.CapUserData

func (s *capSets) has(set func(*unix.CapUserData) *uint32, c int) bool {
	return *set(&s[c/32])&(1<<uint(c%32)) != 0
}

func effective(d *unix.CapUserData) *uint32 { return &d.Effective }
func permitted(d *unix.CapUserData) *uint32 { return &d.Permitted }

func enable(name string) error {
	op := "enable " + name

	c, ok := lookup(name)
	if !ok {
		return fwerr.New(fwerr.PrivilegeLookupFailed, op, fmt.Errorf("unknown capability %q", name))
	}

	hdr := unix.CapUserHeader{Version: unix.LINUX_CAPABILITY_VERSION_3}
	var sets capSets
	if err := unix.Capget(&hdr, &sets[0]); err != nil {
		return fwerr.New(fwerr.TokenAdjustFailed, op, err)
	}
	if sets.has(effective, c) {
		return nil
	}
	if !sets.has(permitted, c) {
		return fwerr.New(fwerr.TokenAdjustFailed, op, errors.New("capability not permitted"))
	}

	sets[c/32].Effective |= 1 << uint(c%32)
	if err := unix.Capset(&hdr, &sets[0]); err != nil {
		return fwerr.New(fwerr.TokenAdjustFailed, op, err)
	}
	return nil
}
