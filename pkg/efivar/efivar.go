// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package efivar locates the physical address of the firmware memory log by
// reading the GUID-scoped firmware variable the firmware publishes it in.
package efivar

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/u-root/fwlog/pkg/fwerr"
	"github.com/u-root/fwlog/pkg/privilege"
)

const (
	// LogAddressName is the variable holding the log buffer address.
	LogAddressName = "PloutonLogAddress"
	// LogAddressNamespace is the vendor GUID of LogAddressName.
	LogAddressNamespace = "{71245e36-47a7-4458-8588-74a4411b9332}"

	addressSize = 8
)

// ErrNotFound is returned by a VariableReader when the variable does not
// exist.
var ErrNotFound = errors.New("efivar: variable not found")

// VariableReader reads the payload of a firmware variable into buf and
// returns the payload size the firmware reported.
type VariableReader interface {
	ReadVariable(name string, namespace uuid.UUID, buf []byte) (int, error)
}

// ParseNamespace parses a vendor GUID, with or without braces.
func ParseNamespace(s string) (uuid.UUID, error) {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid namespace GUID %q: %w", s, err)
	}
	return u, nil
}

// braced formats a GUID the way the Windows firmware variable API wants it.
func braced(u uuid.UUID) string {
	return "{" + strings.ToUpper(u.String()) + "}"
}

// DecodeAddress decodes an 8 byte little-endian physical address.
func DecodeAddress(b []byte) (uint64, error) {
	if len(b) != addressSize {
		return 0, &fwerr.Error{Kind: fwerr.UnexpectedVariableSize, Expected: addressSize, Actual: len(b)}
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Locator resolves the log address. The zero value is not usable; build
// one with NewLocator.
type Locator struct {
	Privileges privilege.Enabler
	// Privilege is enabled before every query.
	Privilege string
	Vars      VariableReader
}

// NewLocator returns a Locator backed by the platform firmware variable
// store and the current process token.
//
// On Linux privilege.SystemEnvironment resolves to CAP_SYS_RAWIO. efivarfs
// itself needs no capability, but the /dev/mem reads that follow do, so a
// process lacking it fails here with fwerr.InsufficientPrivilege.
func NewLocator() *Locator {
	return &Locator{
		Privileges: privilege.Process,
		Privilege:  privilege.SystemEnvironment,
		Vars:       System,
	}
}

// Locate returns the physical address stored in the variable name under the
// vendor GUID namespace. It performs no retries and may block, so callers
// usually run it on a separate goroutine.
func (l *Locator) Locate(name, namespace string) (uint64, error) {
	op := "locate " + name

	ns, err := ParseNamespace(namespace)
	if err != nil {
		return 0, fwerr.New(fwerr.InvalidArgument, op, err)
	}

	if err := l.Privileges.Enable(l.Privilege); err != nil {
		return 0, fwerr.New(fwerr.InsufficientPrivilege, op, err)
	}

	buf := make([]byte, addressSize)
	n, err := l.Vars.ReadVariable(name, ns, buf)
	switch {
	case errors.Is(err, ErrNotFound):
		return 0, fwerr.New(fwerr.AddressNotPublished, op, err)
	case err != nil:
		return 0, fwerr.New(fwerr.FirmwareQueryFailed, op, err)
	case n != addressSize:
		return 0, &fwerr.Error{Kind: fwerr.UnexpectedVariableSize, Op: op, Expected: addressSize, Actual: n}
	}
	return DecodeAddress(buf)
}
