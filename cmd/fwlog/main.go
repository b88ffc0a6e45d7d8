// Copyright 2025 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// fwlog follows the memory log that firmware keeps in a reserved region of
// physical memory and prints new text as it is appended.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmhodges/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/u-root/fwlog/config"
	"github.com/u-root/fwlog/pkg/efivar"
	"github.com/u-root/fwlog/pkg/logger"
	"github.com/u-root/fwlog/pkg/memlog"
	"github.com/u-root/fwlog/pkg/metric"
	"github.com/u-root/fwlog/pkg/physmem"
	"github.com/u-root/fwlog/pkg/privilege"
)

// Playback ignores the address; this one stands in when none is given.
const playbackAddress = 0x1000

var (
	address  = flag.String("address", "", "Log buffer physical address in hex, skips firmware variable discovery")
	interval = flag.Duration("interval", config.DefaultConfig.PollInterval, "How often to read the log buffer")
	timeout  = flag.Duration("timeout", config.DefaultConfig.ReadTimeout, "Give up on a single read after this long, 0 to wait forever")
	once     = flag.Bool("once", false, "Print the current log and exit")
	restart  = flag.Bool("restart", false, "Rediscover the log and start over when monitoring fails")
	saveDir  = flag.String("save", "", "Save everything printed to a timestamped file in this directory on exit")
	metrics  = flag.String("metrics", "", "Serve Prometheus metrics on this address, e.g. :9370")
	logfile  = flag.String("logfile", "", "Also write JSON logs to this file")
	debug    = flag.Bool("debug", false, "Enable debug logging")
	device   = flag.String("device", "", "Physical memory device, empty for the platform default")
	playback = flag.String("playback", "", "Read log buffers from a capture or memory image instead of the device")
	capture  = flag.String("capture", "", "Record every buffer read to this file for later playback")
)

func main() {
	flag.Parse()

	level := zapcore.InfoLevel
	if *debug {
		level = zapcore.DebugLevel
	}
	logger.LogContainer.Configure(*logfile, level)
	log := logger.LogContainer.GetSimpleLogger()
	defer log.Sync()

	cfg := *config.DefaultConfig
	cfg.PollInterval = *interval
	cfg.ReadTimeout = *timeout
	cfg.MetricsAddress = *metrics
	cfg.SaveDirectory = *saveDir
	cfg.Device = *device
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var addr uint64
	if *address != "" {
		a, err := config.ParseAddress(*address)
		if err != nil {
			log.Fatalf("%v", err)
		}
		addr = a
	}

	var dev physmem.Device
	switch {
	case *playback != "":
		dev = physmem.NewPlayback(*playback)
		if addr == 0 {
			addr = playbackAddress
		}
	case cfg.Device != "":
		dev = physmem.NewAt(cfg.Device)
	default:
		dev = physmem.New()
	}
	if *capture != "" {
		dev = physmem.NewCapture(dev, *capture)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	clk := clock.New()
	transcript := &memlog.Transcript{}
	a := &app{
		cfg: &cfg,
		// See efivar.NewLocator for what cfg.Privilege means on Linux.
		loc: &efivar.Locator{
			Privileges: privilege.Process,
			Privilege:  cfg.Privilege,
			Vars:       efivar.System,
		},
		poller: memlog.New(dev,
			memlog.WithClock(clk),
			memlog.WithBufferSize(cfg.BufferSize),
			memlog.WithReadTimeout(cfg.ReadTimeout),
			memlog.WithObserver(metric.NewPollMetrics(reg))),
		out:     newStdoutLog(os.Stdout, transcript, log),
		address: addr,
		once:    *once,
		restart: *restart,
		clk:     clk,
		log:     log,
	}
	defer a.poller.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddress != "" {
		g.Go(func() error {
			return metric.Serve(ctx, cfg.MetricsAddress, reg)
		})
	}
	g.Go(func() error {
		a.clearOnHangup(ctx)
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return a.run(ctx)
	})
	err := g.Wait()

	if cfg.SaveDirectory != "" {
		p, serr := transcript.Save(afero.NewOsFs(), cfg.SaveDirectory, clk.Now())
		if serr != nil {
			log.Errorf("Saving log failed: %v", serr)
		} else {
			log.Infof("Log saved to %s", p)
		}
	}
	if err != nil {
		log.Errorf("%v", err)
		a.poller.Close()
		log.Sync()
		os.Exit(1)
	}
}
