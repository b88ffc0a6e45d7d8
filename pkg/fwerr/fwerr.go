// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fwerr holds the error taxonomy shared by the privilege, firmware
// variable, physical memory and log polling packages.
//
// Every failure crossing a package boundary is an *Error tagged with a Kind.
// Callers branch on the kind with errors.Is:
//
//	if errors.Is(err, fwerr.AddressNotPublished) { ... }
//
// and reach the details (address, OS code, sizes) with errors.As.
package fwerr

import (
	"errors"
	"fmt"
	"syscall"
)

// Kind classifies a failure.
type Kind int

const (
	Unknown Kind = iota
	PrivilegeLookupFailed
	TokenAdjustFailed
	InsufficientPrivilege
	AddressNotPublished
	UnexpectedVariableSize
	FirmwareQueryFailed
	DeviceUnavailable
	PhysicalReadFailed
	InvalidArgument
)

var kindNames = map[Kind]string{
	Unknown:                "unknown",
	PrivilegeLookupFailed:  "privilege lookup failed",
	TokenAdjustFailed:      "token adjust failed",
	InsufficientPrivilege:  "insufficient privilege",
	AddressNotPublished:    "address not published",
	UnexpectedVariableSize: "unexpected variable size",
	FirmwareQueryFailed:    "firmware query failed",
	DeviceUnavailable:      "device unavailable",
	PhysicalReadFailed:     "physical read failed",
	InvalidArgument:        "invalid argument",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error implements error so a bare Kind can be used as an errors.Is target.
func (k Kind) Error() string {
	return k.String()
}

// Error is the tagged failure value. Only the fields relevant to Kind are
// set; the rest stay zero.
type Error struct {
	Kind Kind
	// Op names the operation that failed, e.g. "open \\.\RwDrv".
	Op string

	// Address is the physical address of a failed read.
	Address uint64

	// Expected and Actual are set for UnexpectedVariableSize.
	Expected int
	Actual   int

	// Code is the raw OS error code, 0 if none was reported.
	Code uint32

	Err error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	switch e.Kind {
	case UnexpectedVariableSize:
		msg += fmt.Sprintf(" (expected %d bytes, got %d)", e.Expected, e.Actual)
	case PhysicalReadFailed:
		msg += fmt.Sprintf(" at 0x%X", e.Address)
	}
	if e.Code != 0 {
		msg += fmt.Sprintf(" (code %d)", e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the Kind of e.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// New returns an *Error of kind k that wraps err. When err carries an OS
// errno, its numeric value is copied into Code.
func New(k Kind, op string, err error) *Error {
	return &Error{Kind: k, Op: op, Code: Code(err), Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Code extracts a numeric OS error code from err, or 0.
func Code(err error) uint32 {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return uint32(errno)
	}
	return 0
}
