// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package memlog turns repeated reads of the firmware's fixed size log
// buffer into an incremental text stream.
//
// A Poller owns the log address, the length of text already emitted and
// the scratch buffer. Each Poll reads the whole buffer, decodes it and
// returns only what was appended since the previous poll. When the
// firmware clears the log the text gets shorter; the Poller treats that
// as a restart and returns the whole buffer again.
package memlog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmhodges/clock"
	"github.com/u-root/fwlog/pkg/fwerr"
	"github.com/u-root/fwlog/pkg/physmem"
)

const (
	// BufferSize is the size of the firmware log region.
	BufferSize = 1 << 20
	// DefaultInterval is the default poll cadence.
	DefaultInterval = 50 * time.Millisecond
)

// ErrReadInFlight is returned while a read abandoned after a timeout has not
// returned yet.
var ErrReadInFlight = errors.New("previous read still in flight")

// State is the monitoring state of a Poller.
type State int

const (
	Idle State = iota
	Monitoring
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Monitoring:
		return "monitoring"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Chunk is newly observed log text.
type Chunk struct {
	Text string
	// Wrapped is set when the log was cleared since the last poll and
	// Text holds the whole buffer.
	Wrapped bool
	// Offset is the emitted length before this chunk.
	Offset int
	At     time.Time
}

// Observer is told about every poll. It must not call back into the Poller.
type Observer interface {
	ObservePoll(latency time.Duration, length int, err error)
	ObserveChunk(c *Chunk)
}

type nopObserver struct{}

func (nopObserver) ObservePoll(time.Duration, int, error) {}
func (nopObserver) ObserveChunk(*Chunk)                   {}

// Option configures a Poller.
type Option func(*Poller)

// WithClock sets the clock used to timestamp chunks and time reads.
func WithClock(clk clock.Clock) Option {
	return func(p *Poller) { p.clk = clk }
}

// WithBufferSize overrides BufferSize. It must match the firmware side.
func WithBufferSize(n int) Option {
	return func(p *Poller) { p.size = n }
}

// WithReadTimeout bounds every read. Zero leaves reads bounded only by the
// context passed to Poll.
func WithReadTimeout(d time.Duration) Option {
	return func(p *Poller) { p.timeout = d }
}

// WithObserver registers o for poll and chunk events.
func WithObserver(o Observer) Option {
	return func(p *Poller) { p.obs = o }
}

// Poller polls the log buffer. All methods are safe for concurrent use and
// at most one read is issued against the device at a time.
type Poller struct {
	dev     physmem.Device
	clk     clock.Clock
	size    int
	timeout time.Duration
	obs     Observer

	mu     sync.Mutex
	addr   uint64
	offset int
	state  State
	opened bool
	buf    []byte
	reads  uint64

	// inflight is set while a device read runs, including one that was
	// abandoned after a timeout.
	inflight atomic.Bool
}

// New returns an Idle Poller reading through dev. The device is opened on
// first use.
func New(dev physmem.Device, opts ...Option) *Poller {
	p := &Poller{
		dev:  dev,
		clk:  clock.New(),
		size: BufferSize,
		obs:  nopObserver{},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// SetAddress sets the log address, forgets the emitted length and polls
// once. The monitoring state is left as is, except that a failed read
// moves the Poller to Idle.
func (p *Poller) SetAddress(ctx context.Context, addr uint64) (*Chunk, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.addr = addr
	p.offset = 0
	return p.poll(ctx)
}

// Start switches to Monitoring. It needs an address and a device that can
// be opened.
func (p *Poller) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.addr == 0 {
		return fwerr.New(fwerr.InvalidArgument, "start", errors.New("no log address"))
	}
	if err := p.open(); err != nil {
		return err
	}
	p.state = Monitoring
	return nil
}

// Stop switches to Idle. The device stays open.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.state = Idle
	p.mu.Unlock()
}

// ResetOffset makes the next poll return the whole buffer.
func (p *Poller) ResetOffset() {
	p.mu.Lock()
	p.offset = 0
	p.mu.Unlock()
}

// Close stops monitoring and releases the device.
func (p *Poller) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = Idle
	p.opened = false
	return p.dev.Close()
}

func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Poller) Address() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addr
}

// Offset is the length of text emitted so far.
func (p *Poller) Offset() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offset
}

// Reads is the number of successful buffer reads so far.
func (p *Poller) Reads() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reads
}

// Poll reads the buffer once and returns the text appended since the last
// poll, or nil when nothing changed or no address is set.
func (p *Poller) Poll(ctx context.Context) (*Chunk, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.poll(ctx)
}

func (p *Poller) open() error {
	if p.opened {
		return nil
	}
	if err := p.dev.Open(); err != nil {
		return err
	}
	p.opened = true
	return nil
}

func (p *Poller) poll(ctx context.Context) (*Chunk, error) {
	if p.addr == 0 {
		return nil, nil
	}

	start := p.clk.Now()
	text, err := p.read(ctx)
	p.obs.ObservePoll(p.clk.Since(start), len(text), err)
	if err != nil {
		p.state = Idle
		return nil, err
	}
	p.reads++

	emit, wrapped, changed := Delta(text, p.offset)
	if !changed {
		return nil, nil
	}
	c := &Chunk{Text: emit, Wrapped: wrapped, Offset: p.offset, At: p.clk.Now()}
	p.offset = len(text)
	p.obs.ObserveChunk(c)
	return c, nil
}

func (p *Poller) read(ctx context.Context) (string, error) {
	op := "poll"
	if p.inflight.Load() {
		e := fwerr.New(fwerr.PhysicalReadFailed, op, ErrReadInFlight)
		e.Address = p.addr
		return "", e
	}
	if err := p.open(); err != nil {
		return "", err
	}
	if p.buf == nil {
		p.buf = make([]byte, p.size)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if ctx.Done() == nil {
		if err := p.dev.Read(p.addr, p.buf); err != nil {
			return "", err
		}
		return Decode(p.buf), nil
	}

	buf, addr := p.buf, p.addr
	done := make(chan error, 1)
	p.inflight.Store(true)
	go func() {
		err := p.dev.Read(addr, buf)
		p.inflight.Store(false)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return "", err
		}
		return Decode(buf), nil
	case <-ctx.Done():
		// The device may still write into buf.
		p.buf = nil
		e := fwerr.New(fwerr.PhysicalReadFailed, op, ctx.Err())
		e.Address = addr
		return "", e
	}
}
