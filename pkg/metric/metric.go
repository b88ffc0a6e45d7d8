// Copyright 2021 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metric

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/u-root/fwlog/pkg/fwerr"
	"github.com/u-root/fwlog/pkg/memlog"
)

// MetricOpts contains naming pieces of the exposed metric
type MetricOpts struct {
	Namespace string
	Subsystem string
	Name      string
	Help      string
}

func (o MetricOpts) counter() prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: o.Namespace, Subsystem: o.Subsystem, Name: o.Name, Help: o.Help}
}

func (o MetricOpts) gauge() prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: o.Namespace, Subsystem: o.Subsystem, Name: o.Name, Help: o.Help}
}

func (o MetricOpts) histogram(buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: o.Namespace, Subsystem: o.Subsystem, Name: o.Name, Help: o.Help, Buckets: buckets}
}

const (
	namespace = "fwlog"
	subsystem = "poller"
)

// PollMetrics exports what a memlog.Poller observes.
type PollMetrics struct {
	polls    prometheus.Counter
	failures *prometheus.CounterVec
	emitted  prometheus.Counter
	wraps    prometheus.Counter
	length   prometheus.Gauge
	latency  prometheus.Histogram
}

var _ memlog.Observer = (*PollMetrics)(nil)

// NewPollMetrics creates the poller collectors and registers them with reg.
func NewPollMetrics(reg prometheus.Registerer) *PollMetrics {
	opts := func(name, help string) MetricOpts {
		return MetricOpts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help}
	}
	m := &PollMetrics{
		polls: prometheus.NewCounter(opts("polls_total", "Reads of the log buffer.").counter()),
		failures: prometheus.NewCounterVec(
			opts("poll_failures_total", "Failed reads of the log buffer by error kind.").counter(),
			[]string{"kind"}),
		emitted: prometheus.NewCounter(opts("emitted_bytes_total", "Bytes of log text emitted.").counter()),
		wraps:   prometheus.NewCounter(opts("wraps_total", "Times the log was found cleared and restarted.").counter()),
		length:  prometheus.NewGauge(opts("log_length_bytes", "Length of the decoded log at the last successful read.").gauge()),
		latency: prometheus.NewHistogram(opts("read_duration_seconds", "Duration of one read of the log buffer.").
			histogram(prometheus.ExponentialBuckets(0.0005, 2, 14))),
	}
	reg.MustRegister(m.polls, m.failures, m.emitted, m.wraps, m.length, m.latency)
	return m
}

func (m *PollMetrics) ObservePoll(latency time.Duration, length int, err error) {
	m.polls.Inc()
	m.latency.Observe(latency.Seconds())
	if err != nil {
		m.failures.WithLabelValues(fwerr.KindOf(err).String()).Inc()
		return
	}
	m.length.Set(float64(length))
}

func (m *PollMetrics) ObserveChunk(c *memlog.Chunk) {
	m.emitted.Add(float64(len(c.Text)))
	if c.Wrapped {
		m.wraps.Inc()
	}
}

// StartMetrics adds the metrics handler for g to a http.ServeMux
func StartMetrics(mux *http.ServeMux, g prometheus.Gatherer) {
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

// Serve serves g on addr until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("could not listen: %v", err)
	}
	mux := http.NewServeMux()
	StartMetrics(mux, g)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(sctx)
	}()
	if err := srv.Serve(l); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
