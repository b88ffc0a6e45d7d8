// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memlog

import "testing"

func TestDecode(t *testing.T) {
	for _, tc := range []struct {
		in   []byte
		want string
	}{
		{[]byte("BOOT\n\x00\x00\x00"), "BOOT\n"},
		{[]byte("A\x00B\x00"), "A\x00B"},
		{[]byte{'x', 0x80, 0xff, 'y'}, "x??y"},
		{make([]byte, 16), ""},
		{nil, ""},
	} {
		if got := Decode(tc.in); got != tc.want {
			t.Errorf("Decode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDelta(t *testing.T) {
	for _, tc := range []struct {
		text    string
		offset  int
		emit    string
		wrapped bool
		changed bool
	}{
		{"BOOT LOG LINE1\n", 0, "BOOT LOG LINE1\n", false, true},
		{"BOOT LOG LINE1\n", 15, "", false, false},
		{"BOOT LOG LINE1\nLINE2\n", 15, "LINE2\n", false, true},
		{"ABCDEF", 15, "ABCDEF", true, true},
		{"", 4, "", true, true},
		{"", 0, "", false, false},
	} {
		emit, wrapped, changed := Delta(tc.text, tc.offset)
		if emit != tc.emit || wrapped != tc.wrapped || changed != tc.changed {
			t.Errorf("Delta(%q, %d) = %q, %v, %v; want %q, %v, %v",
				tc.text, tc.offset, emit, wrapped, changed, tc.emit, tc.wrapped, tc.changed)
		}
	}
}
