// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physmem

import (
	"os"
	"sync"

	"github.com/u-root/fwlog/pkg/fwerr"
	"golang.org/x/sys/unix"
)

// DefaultDevMem is the Linux physical memory device.
const DefaultDevMem = "/dev/mem"

// DevMem reads physical memory by mapping /dev/mem.
type DevMem struct {
	Path string

	mu sync.Mutex
	f  *os.File
}

// New returns the platform device, not yet opened.
func New() Device {
	return NewAt(DefaultDevMem)
}

// NewAt returns a device reading the memory device at path.
func NewAt(path string) Device {
	return &DevMem{Path: path}
}

func (d *DevMem) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f != nil {
		return nil
	}
	f, err := os.OpenFile(d.Path, os.O_RDONLY|os.O_SYNC, 0)
	if err != nil {
		return fwerr.New(fwerr.DeviceUnavailable, "open "+d.Path, err)
	}
	d.f = f
	return nil
}

// Read maps the pages covering the span, copies and unmaps them again.
func (d *DevMem) Read(address uint64, out []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := checkRead("read "+d.Path, d.f != nil, out); err != nil {
		return err
	}

	ps := uint64(unix.Getpagesize())
	page := address &^ (ps - 1)
	offset := address - page
	length := (offset + uint64(len(out)) + ps - 1) &^ (ps - 1)

	mem, err := unix.Mmap(int(d.f.Fd()), int64(page), int(length), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return readFailed("read "+d.Path, address, err)
	}
	copy(out, mem[offset:])
	if err := unix.Munmap(mem); err != nil {
		return readFailed("read "+d.Path, address, err)
	}
	return nil
}

func (d *DevMem) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	return err
}
