// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physmem

import (
	"bytes"
	"errors"
	"testing"

	"github.com/jmhodges/clock"
	"github.com/spf13/afero"
	"github.com/u-root/fwlog/pkg/fwerr"
)

// fakeDevice returns queued contents, one per read.
type fakeDevice struct {
	t      *testing.T
	addr   uint64
	reads  [][]byte
	opened bool
	closed int
}

func (d *fakeDevice) Open() error {
	d.opened = true
	return nil
}

func (d *fakeDevice) Read(address uint64, out []byte) error {
	if address != d.addr {
		d.t.Errorf("Expected read at %08x, got %08x", d.addr, address)
	}
	if len(d.reads) == 0 {
		return readFailed("read", address, errors.New("no more reads"))
	}
	copy(out, d.reads[0])
	d.reads = d.reads[1:]
	return nil
}

func (d *fakeDevice) Close() error {
	d.closed++
	return nil
}

func TestPlaybackRawImage(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/image.bin", []byte("BOOT\x00\x00"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := &Playback{Fs: fs, Path: "/image.bin"}
	if err := p.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer p.Close()

	out := bytes.Repeat([]byte{0xff}, 8)
	for i := 0; i < 2; i++ {
		if err := p.Read(0x1000, out); err != nil {
			t.Fatalf("Read: %v", err)
		}
		if want := []byte("BOOT\x00\x00\x00\x00"); !bytes.Equal(out, want) {
			t.Errorf("read %d = %q, want %q", i, out, want)
		}
	}
}

func TestPlaybackMissing(t *testing.T) {
	p := &Playback{Fs: afero.NewMemMapFs(), Path: "/nope"}
	if err := p.Open(); !errors.Is(err, fwerr.DeviceUnavailable) {
		t.Errorf("Open = %v, want DeviceUnavailable", err)
	}
	if err := p.Read(0, make([]byte, 4)); !errors.Is(err, fwerr.InvalidArgument) {
		t.Errorf("Read before Open = %v, want InvalidArgument", err)
	}
}

func TestCaptureThenPlayback(t *testing.T) {
	fs := afero.NewMemMapFs()
	dev := &fakeDevice{t: t, addr: 0x2000, reads: [][]byte{
		[]byte("A\x00\x00\x00"),
		[]byte("AB\x00\x00"),
	}}
	c := &Capture{Device: dev, Fs: fs, Path: "/cap.bin", Clock: clock.NewFake()}
	if err := c.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	out := make([]byte, 4)
	for i := 0; i < 2; i++ {
		if err := c.Read(0x2000, out); err != nil {
			t.Fatalf("Read %d: %v", i, err)
		}
	}
	// A failed read is not captured.
	if err := c.Read(0x2000, out); !errors.Is(err, fwerr.PhysicalReadFailed) {
		t.Errorf("Read = %v, want PhysicalReadFailed", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !dev.opened || dev.closed != 1 {
		t.Errorf("device opened=%v closed=%d, want true and 1", dev.opened, dev.closed)
	}

	p := &Playback{Fs: fs, Path: "/cap.bin"}
	if err := p.Open(); err != nil {
		t.Fatalf("Playback.Open: %v", err)
	}
	for i, want := range []string{"A\x00\x00\x00", "AB\x00\x00", "AB\x00\x00"} {
		if err := p.Read(0, out); err != nil {
			t.Fatalf("Playback.Read %d: %v", i, err)
		}
		if string(out) != want {
			t.Errorf("frame %d = %q, want %q", i, out, want)
		}
	}
}

func TestPlaybackTruncatedCapture(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := append(captureMagic[:], 1, 2, 3)
	if err := afero.WriteFile(fs, "/cap.bin", data, 0o644); err != nil {
		t.Fatal(err)
	}
	p := &Playback{Fs: fs, Path: "/cap.bin"}
	if err := p.Open(); !errors.Is(err, fwerr.DeviceUnavailable) {
		t.Errorf("Open = %v, want DeviceUnavailable", err)
	}
}

func TestCaptureSkipsUnchanged(t *testing.T) {
	fs := afero.NewMemMapFs()
	dev := &fakeDevice{t: t, addr: 0x2000, reads: [][]byte{
		[]byte("A\x00\x00\x00"),
		[]byte("A\x00\x00\x00"),
		[]byte("AB\x00\x00"),
		[]byte("AB\x00\x00"),
	}}
	c := &Capture{Device: dev, Fs: fs, Path: "/cap.bin", Clock: clock.NewFake()}
	if err := c.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	out := make([]byte, 4)
	for i := 0; i < 4; i++ {
		if err := c.Read(0x2000, out); err != nil {
			t.Fatalf("Read %d: %v", i, err)
		}
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	p := &Playback{Fs: fs, Path: "/cap.bin"}
	if err := p.Open(); err != nil {
		t.Fatalf("Playback.Open: %v", err)
	}
	if len(p.frames) != 2 {
		t.Errorf("capture holds %d frames, want 2", len(p.frames))
	}
}

func TestCaptureWriteFailure(t *testing.T) {
	dev := &fakeDevice{t: t, addr: 0x2000, reads: [][]byte{[]byte("A\x00")}}
	c := &Capture{Device: dev, Fs: afero.NewMemMapFs(), Path: "/cap.bin", Clock: clock.NewFake()}
	if err := c.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	// Writes to a closed file fail.
	c.f.Close()

	err := c.Read(0x2000, make([]byte, 2))
	if !errors.Is(err, fwerr.PhysicalReadFailed) {
		t.Fatalf("Read = %v, want PhysicalReadFailed", err)
	}
	if fwerr.KindOf(err) != fwerr.PhysicalReadFailed {
		t.Errorf("KindOf = %v", fwerr.KindOf(err))
	}
}
