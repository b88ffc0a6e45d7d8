// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memlog

import "strings"

// Decode returns b as ASCII text with trailing NUL bytes removed. Embedded
// NULs are kept and bytes outside the ASCII range become '?'.
func Decode(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	var sb strings.Builder
	sb.Grow(end)
	for _, c := range b[:end] {
		if c > 0x7f {
			c = '?'
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// Delta compares text against the length emitted so far and returns the
// part that is new. A text shorter than offset means the firmware cleared
// the log and started over, so all of it is new.
func Delta(text string, offset int) (emit string, wrapped, changed bool) {
	switch {
	case len(text) > offset:
		return text[offset:], false, true
	case len(text) < offset:
		return text, true, true
	}
	return "", false, false
}
