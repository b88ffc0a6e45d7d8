// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memlog

import (
	"context"
	"time"
)

// Output receives what Run produces.
type Output interface {
	Chunk(c *Chunk)
	Failure(err error)
}

// Run polls every interval while the Poller is Monitoring, one poll at a
// time. It returns nil when ctx is done and the read error when a poll
// fails, after handing it to out.
func (p *Poller) Run(ctx context.Context, interval time.Duration, out Output) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	t := p.clk.NewTimer(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
		if p.State() == Monitoring {
			c, err := p.Poll(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				out.Failure(err)
				return err
			}
			if c != nil {
				out.Chunk(c)
			}
		}
		t.Reset(interval)
	}
}
