// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/u-root/fwlog/pkg/fwerr"
	"github.com/u-root/fwlog/pkg/memlog"
)

// stdoutLog prints log text to w and keeps a transcript for saving.
type stdoutLog struct {
	mu  sync.Mutex
	w   io.Writer
	t   *memlog.Transcript
	log *zap.SugaredLogger
}

func newStdoutLog(w io.Writer, t *memlog.Transcript, log *zap.SugaredLogger) *stdoutLog {
	return &stdoutLog{w: w, t: t, log: log}
}

func (l *stdoutLog) Chunk(c *memlog.Chunk) {
	if c.Wrapped {
		l.log.Infow("Log restarted by firmware", "length", len(c.Text), "previous", c.Offset)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := io.WriteString(l.w, c.Text); err != nil {
		l.log.Errorw("Writing log failed", "error", err)
	}
	l.t.Append(c)
}

func (l *stdoutLog) Failure(err error) {
	l.log.Errorw("Reading log failed", "kind", fwerr.KindOf(err).String(), "code", fwerr.Code(err), "error", err)
}

func (l *stdoutLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.t.Reset()
}
