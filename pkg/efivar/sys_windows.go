// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package efivar

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	"github.com/google/uuid"
	"golang.org/x/sys/windows"
)

var (
	modkernel32 = windows.NewLazySystemDLL("kernel32.dll")

	// https://docs.microsoft.com/en-us/windows/win32/api/winbase/nf-winbase-getfirmwareenvironmentvariablew
	procGetFirmwareEnvironmentVariableW = modkernel32.NewProc("GetFirmwareEnvironmentVariableW")
)

type firmwareEnvironment struct{}

// System is the platform firmware variable store.
var System VariableReader = firmwareEnvironment{}

func (firmwareEnvironment) ReadVariable(name string, namespace uuid.UUID, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, errors.New("efivar: empty buffer")
	}
	n, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, err
	}
	g, err := windows.UTF16PtrFromString(braced(namespace))
	if err != nil {
		return 0, err
	}

	r1, _, e1 := procGetFirmwareEnvironmentVariableW.Call(
		uintptr(unsafe.Pointer(n)),
		uintptr(unsafe.Pointer(g)),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
	)
	// err is never nil, must check r1, see doc here
	// https://golang.org/pkg/syscall/?GOOS=windows#Proc.Call
	if r1 == 0 {
		var errno syscall.Errno
		if errors.As(e1, &errno) && errno == windows.ERROR_ENVVAR_NOT_FOUND {
			return 0, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return 0, e1
	}
	return int(uint32(r1)), nil
}
