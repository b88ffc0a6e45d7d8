// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package efivar

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// DefaultEfivarfsDir is where Linux mounts efivarfs.
const DefaultEfivarfsDir = "/sys/firmware/efi/efivars"

// Efivarfs reads variables from an efivarfs mount. Each variable is a file
// named {Name}-{guid} whose first four bytes are the attributes.
type Efivarfs struct {
	Fs  afero.Fs
	Dir string
}

// NewEfivarfs returns a reader for the host's efivarfs mount.
func NewEfivarfs() *Efivarfs {
	return &Efivarfs{Fs: afero.NewOsFs(), Dir: DefaultEfivarfsDir}
}

func (e *Efivarfs) path(name string, namespace uuid.UUID) string {
	return filepath.Join(e.Dir, name+"-"+namespace.String())
}

func (e *Efivarfs) ReadVariable(name string, namespace uuid.UUID, buf []byte) (int, error) {
	p := e.path(name, namespace)
	b, err := afero.ReadFile(e.Fs, p)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	// The first four bytes hold the UEFI variable attributes.
	if len(b) < 4 {
		return 0, fmt.Errorf("%q contains %d bytes of data, it should have at least 4", p, len(b))
	}
	data := b[4:]
	copy(buf, data)
	return len(data), nil
}
