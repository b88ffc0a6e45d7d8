// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memlog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/spf13/afero"
	"github.com/u-root/fwlog/pkg/fwerr"
)

type collect struct {
	chunks   []*Chunk
	failures []error
}

func (c *collect) Chunk(ch *Chunk)   { c.chunks = append(c.chunks, ch) }
func (c *collect) Failure(err error) { c.failures = append(c.failures, err) }

func TestRunUntilFailure(t *testing.T) {
	d := &fakeDevice{t: t}
	p := New(d, WithBufferSize(testSize), WithClock(clock.New()))
	d.FakeRead("one\n")
	d.FakeRead("one\ntwo\n")
	d.FakeRead("one\ntwo\n")
	d.FakeRead("three\n")
	d.FailRead(&fwerr.Error{Kind: fwerr.PhysicalReadFailed})

	if _, err := p.SetAddress(context.Background(), testAddr); err != nil {
		t.Fatal(err)
	}
	if err := p.Start(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out := &collect{}
	err := p.Run(ctx, time.Millisecond, out)
	if !errors.Is(err, fwerr.PhysicalReadFailed) {
		t.Fatalf("Run = %v, want PhysicalReadFailed", err)
	}
	var texts []string
	for _, c := range out.chunks {
		texts = append(texts, c.Text)
	}
	if got, want := strings.Join(texts, "|"), "two\n|three\n"; got != want {
		t.Errorf("chunks = %q, want %q", got, want)
	}
	if len(out.failures) != 1 {
		t.Errorf("got %d failures, want 1", len(out.failures))
	}
	if p.State() != Idle {
		t.Errorf("State = %v, want idle", p.State())
	}
}

func TestRunIdleDoesNotPoll(t *testing.T) {
	d := &fakeDevice{t: t}
	p := New(d, WithBufferSize(testSize), WithClock(clock.New()))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.Run(ctx, time.Millisecond, &collect{}); err != nil {
		t.Errorf("Run = %v, want nil", err)
	}
	if d.Reads() != 0 {
		t.Errorf("idle poller read %d times", d.Reads())
	}
}

func TestTranscriptSave(t *testing.T) {
	var tr Transcript
	tr.Append(&Chunk{Text: "BOOT LOG LINE1\n"})
	tr.Append(nil)
	tr.Append(&Chunk{Text: "LINE2\n"})

	fs := afero.NewMemMapFs()
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p, err := tr.Save(fs, "/logs", now)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if p != "/logs/PloutonLog_20240102_030405.txt" {
		t.Errorf("Save path = %q", p)
	}
	b, err := afero.ReadFile(fs, p)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "BOOT LOG LINE1\nLINE2\n" {
		t.Errorf("saved %q", b)
	}

	tr.Reset()
	if tr.String() != "" {
		t.Errorf("String after Reset = %q", tr.String())
	}
}
