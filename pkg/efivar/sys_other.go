// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !windows && !linux

package efivar

import (
	"fmt"
	"runtime"

	"github.com/google/uuid"
)

type unsupported struct{}

// System is the platform firmware variable store.
var System VariableReader = unsupported{}

func (unsupported) ReadVariable(name string, namespace uuid.UUID, buf []byte) (int, error) {
	return 0, fmt.Errorf("firmware variables not supported on %s", runtime.GOOS)
}
