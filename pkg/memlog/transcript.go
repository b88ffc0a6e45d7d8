// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memlog

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// Transcript accumulates every chunk shown to the user.
type Transcript struct {
	mu sync.Mutex
	sb strings.Builder
}

func (t *Transcript) Append(c *Chunk) {
	if c == nil {
		return
	}
	t.mu.Lock()
	t.sb.WriteString(c.Text)
	t.mu.Unlock()
}

// Reset drops everything collected so far.
func (t *Transcript) Reset() {
	t.mu.Lock()
	t.sb.Reset()
	t.mu.Unlock()
}

func (t *Transcript) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sb.String()
}

// FileName is the name a transcript saved at now gets.
func FileName(now time.Time) string {
	return fmt.Sprintf("PloutonLog_%s.txt", now.Format("20060102_150405"))
}

// Save writes the transcript to dir on fs and returns the file path.
func (t *Transcript) Save(fs afero.Fs, dir string, now time.Time) (string, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	p := filepath.Join(dir, FileName(now))
	if err := afero.WriteFile(fs, p, []byte(t.String()), 0o644); err != nil {
		return "", fmt.Errorf("save transcript: %w", err)
	}
	return p, nil
}
