// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physmem

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/afero"
	"github.com/u-root/fwlog/pkg/fwerr"
)

// Playback serves reads from a file instead of physical memory. The file is
// either a raw memory image, returned for every read, or a capture written
// by Capture, whose frames are returned one per read. Once the frames run
// out the last one keeps being returned.
type Playback struct {
	Fs   afero.Fs
	Path string

	mu     sync.Mutex
	open   bool
	frames [][]byte
	next   int
}

// NewPlayback returns a Playback reading path from the host filesystem.
func NewPlayback(path string) *Playback {
	return &Playback{Fs: afero.NewOsFs(), Path: path}
}

func (p *Playback) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.open {
		return nil
	}
	b, err := afero.ReadFile(p.Fs, p.Path)
	if err != nil {
		return fwerr.New(fwerr.DeviceUnavailable, "open "+p.Path, err)
	}
	frames, err := parseFrames(b)
	if err != nil {
		return fwerr.New(fwerr.DeviceUnavailable, "open "+p.Path, err)
	}
	p.frames = frames
	p.next = 0
	p.open = true
	return nil
}

func parseFrames(b []byte) ([][]byte, error) {
	if !bytes.HasPrefix(b, captureMagic[:]) {
		return [][]byte{b}, nil
	}
	r := bytes.NewReader(b[len(captureMagic):])
	var frames [][]byte
	for {
		var h frameHeader
		err := binary.Read(r, binary.LittleEndian, &h)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("frame %d: binary.Read failed: %w", len(frames), err)
		}
		data := make([]byte, h.Size)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, fmt.Errorf("frame %d: %w", len(frames), err)
		}
		frames = append(frames, data)
	}
	if len(frames) == 0 {
		return nil, errors.New("capture holds no frames")
	}
	return frames, nil
}

// Read ignores address. Bytes beyond the frame are zeroed.
func (p *Playback) Read(address uint64, out []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := checkRead("read "+p.Path, p.open, out); err != nil {
		return err
	}
	f := p.frames[p.next]
	if p.next < len(p.frames)-1 {
		p.next++
	}
	n := copy(out, f)
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	return nil
}

func (p *Playback) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = false
	p.frames = nil
	return nil
}
