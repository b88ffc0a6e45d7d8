// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physmem

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/u-root/fwlog/pkg/fwerr"
	"golang.org/x/sys/windows"
)

// RwDrv talks to the RwDrv kernel driver.
type RwDrv struct {
	Path string

	mu sync.Mutex
	h  windows.Handle
}

// New returns the platform device, not yet opened.
func New() Device {
	return NewAt(DevicePath)
}

// NewAt returns a device for the driver at path.
func NewAt(path string) Device {
	return &RwDrv{Path: path, h: windows.InvalidHandle}
}

func (d *RwDrv) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.h != windows.InvalidHandle && d.h != 0 {
		return nil
	}
	p, err := windows.UTF16PtrFromString(d.Path)
	if err != nil {
		return fwerr.New(fwerr.InvalidArgument, "open "+d.Path, err)
	}
	h, err := windows.CreateFile(p,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0)
	if err != nil {
		return fwerr.New(fwerr.DeviceUnavailable, "open "+d.Path, err)
	}
	d.h = h
	return nil
}

func (d *RwDrv) Read(address uint64, out []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := checkRead("read "+d.Path, d.h != windows.InvalidHandle && d.h != 0, out); err != nil {
		return err
	}

	var pin runtime.Pinner
	pin.Pin(&out[0])
	defer pin.Unpin()

	req := ReadRequest{
		PhysicalAddress: address,
		Size:            uint32(len(out)),
		Access:          AccessByte,
		Buffer:          uint64(uintptr(unsafe.Pointer(&out[0]))),
	}
	var returned uint32
	err := windows.DeviceIoControl(d.h, IoctlReadPhysicalMemory,
		(*byte)(unsafe.Pointer(&req)), RequestSize,
		(*byte)(unsafe.Pointer(&req)), RequestSize,
		&returned, nil)
	if err != nil {
		return readFailed("read "+d.Path, address, err)
	}
	return nil
}

func (d *RwDrv) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.h == windows.InvalidHandle || d.h == 0 {
		return nil
	}
	err := windows.CloseHandle(d.h)
	d.h = windows.InvalidHandle
	return err
}
