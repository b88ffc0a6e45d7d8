// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package privilege

import (
	"errors"
	"testing"

	"github.com/u-root/fwlog/pkg/fwerr"
	"golang.org/x/sys/unix"
)

func TestLookup(t *testing.T) {
	for _, tc := range []struct {
		name string
		want int
		ok   bool
	}{
		{"CAP_SYS_RAWIO", unix.CAP_SYS_RAWIO, true},
		{"CAP_SYS_ADMIN", unix.CAP_SYS_ADMIN, true},
		{SystemEnvironment, unix.CAP_SYS_RAWIO, true},
		{"SeDebugPrivilege", 0, false},
	} {
		got, ok := lookup(tc.name)
		if ok != tc.ok || got != tc.want {
			t.Errorf("lookup(%q) = %d, %v; want %d, %v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestEnableUnknown(t *testing.T) {
	err := Enable("CAP_MADE_UP")
	if !errors.Is(err, fwerr.PrivilegeLookupFailed) {
		t.Fatalf("Enable(CAP_MADE_UP) = %v, want PrivilegeLookupFailed", err)
	}
}

func TestCapSetsHas(t *testing.T) {
	var s capSets
	s[unix.CAP_SYS_ADMIN/32].Permitted = 1 << uint(unix.CAP_SYS_ADMIN%32)
	if !s.has(permitted, unix.CAP_SYS_ADMIN) {
		t.Errorf("CAP_SYS_ADMIN not reported as permitted")
	}
	if s.has(effective, unix.CAP_SYS_ADMIN) {
		t.Errorf("CAP_SYS_ADMIN reported as effective")
	}
}
