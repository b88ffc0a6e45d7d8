// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physmem

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/jmhodges/clock"
	"github.com/spf13/afero"
)

// captureMagic starts every capture file.
var captureMagic = [8]byte{'F', 'W', 'L', 'O', 'G', 'C', 'A', 'P'}

// frameHeader precedes the raw bytes of every captured read.
type frameHeader struct {
	UnixNano int64
	Address  uint64
	Size     uint32
}

// Capture records successful reads of Device into a file on Fs so that
// they can be replayed later with Playback. A read returning the same bytes
// as the previously recorded one is not recorded again.
type Capture struct {
	Device Device
	Fs     afero.Fs
	Path   string
	Clock  clock.Clock

	mu   sync.Mutex
	f    afero.File
	last []byte
}

// NewCapture wraps d, writing frames to path on the host filesystem.
func NewCapture(d Device, path string) *Capture {
	return &Capture{Device: d, Fs: afero.NewOsFs(), Path: path, Clock: clock.New()}
}

func (c *Capture) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.f == nil {
		f, err := c.Fs.Create(c.Path)
		if err != nil {
			return fmt.Errorf("create capture %s: %w", c.Path, err)
		}
		if _, err := f.Write(captureMagic[:]); err != nil {
			f.Close()
			return fmt.Errorf("write capture %s: %w", c.Path, err)
		}
		c.f = f
		c.last = nil
	}
	return c.Device.Open()
}

func (c *Capture) Read(address uint64, out []byte) error {
	if err := c.Device.Read(address, out); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.f == nil || bytes.Equal(c.last, out) {
		return nil
	}
	err := writeFrame(c.f, frameHeader{
		UnixNano: c.Clock.Now().UnixNano(),
		Address:  address,
		Size:     uint32(len(out)),
	}, out)
	if err != nil {
		return readFailed("capture "+c.Path, address, err)
	}
	c.last = append(c.last[:0], out...)
	return nil
}

func (c *Capture) Close() error {
	c.mu.Lock()
	var err error
	if c.f != nil {
		err = c.f.Close()
		c.f = nil
	}
	c.mu.Unlock()
	if derr := c.Device.Close(); err == nil {
		err = derr
	}
	return err
}

func writeFrame(w io.Writer, h frameHeader, data []byte) error {
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("binary.Write failed: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
