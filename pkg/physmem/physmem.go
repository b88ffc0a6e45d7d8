// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package physmem copies blocks of physical memory into caller buffers
// through a privileged device channel.
//
// On Windows the channel is the RwDrv kernel driver, driven with a single
// read command. On Linux it is /dev/mem. Reads are all or nothing: a Read
// either fills the whole buffer or returns an error.
package physmem

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/u-root/fwlog/pkg/fwerr"
)

const (
	// DevicePath is the RwDrv device namespace path.
	DevicePath = `\\.\RwDrv`
	// IoctlReadPhysicalMemory is the RwDrv control code for a physical read.
	IoctlReadPhysicalMemory = 0x222808

	// AccessByte requests byte-granular access.
	AccessByte = 0

	// RequestSize is the wire size of a ReadRequest.
	RequestSize = 24
)

// Device is a channel able to read physical memory.
type Device interface {
	// Open acquires the channel. It fails with fwerr.DeviceUnavailable.
	Open() error
	// Read copies len(out) bytes starting at address into out.
	Read(address uint64, out []byte) error
	// Close releases the channel. It is safe to call more than once, and
	// without a prior Open.
	Close() error
}

// ReadRequest is the command block passed to the driver. It serves as both
// the input and output buffer of the control call.
type ReadRequest struct {
	PhysicalAddress uint64
	Size            uint32
	Access          uint32
	Buffer          uint64
}

// MarshalBinary encodes r in the driver's little-endian layout.
func (r *ReadRequest) MarshalBinary() ([]byte, error) {
	b := make([]byte, RequestSize)
	binary.LittleEndian.PutUint64(b[0:], r.PhysicalAddress)
	binary.LittleEndian.PutUint32(b[8:], r.Size)
	binary.LittleEndian.PutUint32(b[12:], r.Access)
	binary.LittleEndian.PutUint64(b[16:], r.Buffer)
	return b, nil
}

// UnmarshalBinary decodes a request written by MarshalBinary.
func (r *ReadRequest) UnmarshalBinary(b []byte) error {
	if len(b) != RequestSize {
		return fmt.Errorf("read request is %d bytes, want %d", len(b), RequestSize)
	}
	r.PhysicalAddress = binary.LittleEndian.Uint64(b[0:])
	r.Size = binary.LittleEndian.Uint32(b[8:])
	r.Access = binary.LittleEndian.Uint32(b[12:])
	r.Buffer = binary.LittleEndian.Uint64(b[16:])
	return nil
}

// checkRead validates the preconditions shared by every backend.
func checkRead(op string, open bool, out []byte) error {
	switch {
	case !open:
		return fwerr.New(fwerr.InvalidArgument, op, fmt.Errorf("device not open"))
	case len(out) == 0:
		return fwerr.New(fwerr.InvalidArgument, op, fmt.Errorf("empty buffer"))
	case uint64(len(out)) > math.MaxUint32:
		return fwerr.New(fwerr.InvalidArgument, op, fmt.Errorf("buffer of %d bytes does not fit the request", len(out)))
	}
	return nil
}

func readFailed(op string, address uint64, err error) error {
	e := fwerr.New(fwerr.PhysicalReadFailed, op, err)
	e.Address = address
	return e
}
