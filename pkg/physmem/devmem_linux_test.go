// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physmem

import (
	"errors"
	"testing"

	"github.com/u-root/fwlog/pkg/fwerr"
)

func TestDevMemUnavailable(t *testing.T) {
	d := &DevMem{Path: "/nonexistent/mem"}
	if err := d.Open(); !errors.Is(err, fwerr.DeviceUnavailable) {
		t.Errorf("Open = %v, want DeviceUnavailable", err)
	}
	if err := d.Read(0x1000, make([]byte, 8)); !errors.Is(err, fwerr.InvalidArgument) {
		t.Errorf("Read = %v, want InvalidArgument", err)
	}
	for i := 0; i < 2; i++ {
		if err := d.Close(); err != nil {
			t.Errorf("Close %d = %v", i, err)
		}
	}
}
