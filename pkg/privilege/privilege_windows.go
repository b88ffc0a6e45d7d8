// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package privilege

import (
	"unsafe"

	"github.com/u-root/fwlog/pkg/fwerr"
	"golang.org/x/sys/windows"
)

var (
	modadvapi32 = windows.NewLazySystemDLL("advapi32.dll")

	// Called directly instead of windows.AdjustTokenPrivileges: the call
	// reports success with ERROR_NOT_ALL_ASSIGNED when the token does not
	// hold the privilege, and only Proc.Call hands back that last error.
	procAdjustTokenPrivileges = modadvapi32.NewProc("AdjustTokenPrivileges")
)

func enable(name string) error {
	op := "enable " + name

	var token windows.Token
	err := windows.OpenProcessToken(windows.CurrentProcess(), windows.TOKEN_ADJUST_PRIVILEGES|windows.TOKEN_QUERY, &token)
	if err != nil {
		return fwerr.New(fwerr.TokenAdjustFailed, op, err)
	}
	defer token.Close()

	n, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return fwerr.New(fwerr.PrivilegeLookupFailed, op, err)
	}
	var luid windows.LUID
	if err := windows.LookupPrivilegeValue(nil, n, &luid); err != nil {
		return fwerr.New(fwerr.PrivilegeLookupFailed, op, err)
	}

	tp := windows.Tokenprivileges{PrivilegeCount: 1}
	tp.Privileges[0] = windows.LUIDAndAttributes{
		Luid:       luid,
		Attributes: windows.SE_PRIVILEGE_ENABLED,
	}
	r1, _, e1 := procAdjustTokenPrivileges.Call(
		uintptr(token),
		0, // DisableAllPrivileges = FALSE
		uintptr(unsafe.Pointer(&tp)),
		0,
		0,
		0,
	)
	if r1 == 0 {
		return fwerr.New(fwerr.TokenAdjustFailed, op, e1)
	}
	if e1 == windows.ERROR_NOT_ALL_ASSIGNED {
		return fwerr.New(fwerr.TokenAdjustFailed, op, e1)
	}
	return nil
}
