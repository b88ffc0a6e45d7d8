// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !windows && !linux

package physmem

import (
	"fmt"
	"runtime"

	"github.com/u-root/fwlog/pkg/fwerr"
)

type unsupported struct{}

// New returns the platform device, not yet opened.
func New() Device {
	return unsupported{}
}

// NewAt returns the platform device; path is ignored.
func NewAt(string) Device {
	return unsupported{}
}

func (unsupported) Open() error {
	return fwerr.New(fwerr.DeviceUnavailable, "open", fmt.Errorf("physical memory access not supported on %s", runtime.GOOS))
}

func (unsupported) Read(address uint64, out []byte) error {
	return checkRead("read", false, out)
}

func (unsupported) Close() error {
	return nil
}
