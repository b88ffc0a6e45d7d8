// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package efivar

// System is the platform firmware variable store.
var System VariableReader = NewEfivarfs()
