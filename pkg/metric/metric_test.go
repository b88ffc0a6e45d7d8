// Copyright 2021 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metric

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/u-root/fwlog/pkg/fwerr"
	"github.com/u-root/fwlog/pkg/memlog"
)

func TestPollMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPollMetrics(reg)

	m.ObservePoll(time.Millisecond, 15, nil)
	m.ObserveChunk(&memlog.Chunk{Text: "BOOT LOG LINE1\n"})
	m.ObservePoll(time.Millisecond, 6, nil)
	m.ObserveChunk(&memlog.Chunk{Text: "ABCDEF", Wrapped: true})
	m.ObservePoll(time.Millisecond, 0, &fwerr.Error{Kind: fwerr.PhysicalReadFailed})
	m.ObservePoll(time.Millisecond, 0, errors.New("plain"))

	for _, tc := range []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"polls", m.polls, 4},
		{"emitted", m.emitted, 21},
		{"wraps", m.wraps, 1},
		{"length", m.length, 6},
		{"read failures", m.failures.WithLabelValues("physical read failed"), 1},
		{"unknown failures", m.failures.WithLabelValues("unknown"), 1},
	} {
		if got := testutil.ToFloat64(tc.c); got != tc.want {
			t.Errorf("%s = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestStartMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPollMetrics(reg)
	m.ObservePoll(time.Millisecond, 3, nil)

	mux := http.NewServeMux()
	StartMetrics(mux, reg)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "fwlog_poller_polls_total 1") {
		t.Errorf("metrics output lacks poll counter:\n%s", b)
	}
}
