// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package privilege enables a named privilege for the current process.
//
// On Windows the name is a token privilege such as
// SeSystemEnvironmentPrivilege. On Linux it is a capability name such as
// CAP_SYS_RAWIO, raised from the permitted into the effective set.
//
// Enabling affects the whole process for its lifetime. Enable keeps no
// state and may be called again with the same name.
package privilege

// SystemEnvironment is the privilege needed to query firmware variables.
const SystemEnvironment = "SeSystemEnvironmentPrivilege"

// Enabler is satisfied by anything that can enable a privilege by name.
type Enabler interface {
	Enable(name string) error
}

// EnablerFunc adapts a function to Enabler.
type EnablerFunc func(name string) error

func (f EnablerFunc) Enable(name string) error {
	return f(name)
}

// Process enables privileges in the current process.
var Process Enabler = EnablerFunc(Enable)

// Enable enables the named privilege in the current process.
// It fails with fwerr.PrivilegeLookupFailed for an unknown name and with
// fwerr.TokenAdjustFailed when the system rejects the adjustment.
func Enable(name string) error {
	return enable(name)
}
