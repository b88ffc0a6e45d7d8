// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmhodges/clock"
	"github.com/jpillora/backoff"
	"go.uber.org/zap"

	"github.com/u-root/fwlog/config"
	"github.com/u-root/fwlog/pkg/logger"
	"github.com/u-root/fwlog/pkg/memlog"
)

type locator interface {
	Locate(name, namespace string) (uint64, error)
}

type app struct {
	cfg    *config.Config
	loc    locator
	poller *memlog.Poller
	out    *stdoutLog

	// address skips discovery when non-zero.
	address uint64
	once    bool
	restart bool
	backoff *backoff.Backoff

	clk clock.Clock
	log *zap.SugaredLogger
}

// run monitors the log until ctx is done. With restart set, a failed
// session is followed by a new discovery after a backoff delay.
func (a *app) run(ctx context.Context) error {
	if a.backoff == nil {
		a.backoff = &backoff.Backoff{
			Min:    a.cfg.Restart.Min,
			Max:    a.cfg.Restart.Max,
			Factor: a.cfg.Restart.Factor,
			Jitter: true,
		}
	}
	for {
		progressed, err := a.session(ctx)
		if err == nil || ctx.Err() != nil {
			return nil
		}
		if !a.restart {
			return err
		}
		if progressed {
			a.backoff.Reset()
		}
		d := a.backoff.Duration()
		a.log.Warnw("Monitoring stopped, starting over", "error", err, "delay", d, "attempt", a.backoff.Attempt())
		select {
		case <-ctx.Done():
			return nil
		case <-a.clk.After(d):
		}
	}
}

// session discovers the address, prints what is new in the log and, unless
// once is set, follows it until a read fails. progressed reports whether a
// poll after the first one succeeded.
func (a *app) session(ctx context.Context) (progressed bool, err error) {
	addr := a.address
	if addr == 0 {
		addr, err = a.discover(ctx)
		if err != nil {
			return false, err
		}
	}

	var c *memlog.Chunk
	if addr == a.poller.Address() {
		// Same buffer as before the failure; keep the emitted length.
		c, err = a.poller.Poll(ctx)
	} else {
		a.log.Infow("Log buffer located", logger.LogContainer.Address("address", addr))
		c, err = a.poller.SetAddress(ctx, addr)
	}
	if err != nil {
		return false, err
	}
	if c != nil {
		a.out.Chunk(c)
	}
	if a.once {
		return true, nil
	}
	if err := a.poller.Start(); err != nil {
		return false, err
	}
	a.log.Debugw("Monitoring", "interval", a.cfg.PollInterval)
	first := a.poller.Reads()
	err = a.poller.Run(ctx, a.cfg.PollInterval, a.out)
	return a.poller.Reads() > first, err
}

// discover queries the firmware variable on its own goroutine, since the
// query cannot be interrupted, and hands the result back over a channel.
func (a *app) discover(ctx context.Context) (uint64, error) {
	type result struct {
		addr uint64
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		addr, err := a.loc.Locate(a.cfg.Variable.Name, a.cfg.Variable.Namespace)
		ch <- result{addr, err}
	}()
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case r := <-ch:
		return r.addr, r.err
	}
}

// clearOnHangup forgets everything printed so far on SIGHUP, so the next
// poll prints the whole buffer again.
func (a *app) clearOnHangup(ctx context.Context) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP)
	defer signal.Stop(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			a.clear()
		}
	}
}

func (a *app) clear() {
	a.out.Reset()
	a.poller.ResetOffset()
	a.log.Infow("Log cleared")
}
