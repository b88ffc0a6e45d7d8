// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !windows && !linux

package privilege

import (
	"fmt"
	"runtime"

	"github.com/u-root/fwlog/pkg/fwerr"
)

func enable(name string) error {
	return fwerr.New(fwerr.PrivilegeLookupFailed, "enable "+name, fmt.Errorf("privileges not supported on %s", runtime.GOOS))
}
