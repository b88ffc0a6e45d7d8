// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/u-root/fwlog/pkg/efivar"
	"github.com/u-root/fwlog/pkg/memlog"
	"github.com/u-root/fwlog/pkg/privilege"
)

// Set with -ldflags "-X github.com/u-root/fwlog/config.gitVersion=..."
var (
	gitVersion = "dev"
	gitHash    = "unknown"
)

type Version struct {
	Version string
	GitHash string
}

// Variable names the firmware variable publishing the log address.
type Variable struct {
	Name      string
	Namespace string
}

// Restart bounds the backoff between monitoring sessions.
type Restart struct {
	Min    time.Duration
	Max    time.Duration
	Factor float64
}

type Config struct {
	Variable  Variable
	Privilege string
	// Device is the physical memory device, empty for the platform default.
	Device       string
	BufferSize   int
	PollInterval time.Duration
	// ReadTimeout bounds a single buffer read, zero for none.
	ReadTimeout    time.Duration
	MetricsAddress string
	SaveDirectory  string
	Restart        Restart
	Version        Version
}

var DefaultConfig = &Config{
	Variable: Variable{
		Name:      efivar.LogAddressName,
		Namespace: efivar.LogAddressNamespace,
	},
	// On Linux this maps to CAP_SYS_RAWIO, which /dev/mem needs as well.
	Privilege: privilege.SystemEnvironment,

	// Must match the size the firmware reserves.
	BufferSize:   memlog.BufferSize,
	PollInterval: memlog.DefaultInterval,

	Restart: Restart{
		Min:    500 * time.Millisecond,
		Max:    30 * time.Second,
		Factor: 2,
	},

	Version: Version{
		Version: gitVersion,
		GitHash: gitHash,
	},
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.Variable.Name == "":
		return errors.New("variable name is empty")
	case c.BufferSize <= 0:
		return fmt.Errorf("buffer size %d must be positive", c.BufferSize)
	case uint64(c.BufferSize) > math.MaxUint32:
		return fmt.Errorf("buffer size %d does not fit a read request", c.BufferSize)
	case c.PollInterval <= 0:
		return fmt.Errorf("poll interval %v must be positive", c.PollInterval)
	case c.ReadTimeout < 0:
		return fmt.Errorf("read timeout %v is negative", c.ReadTimeout)
	case c.Restart.Min <= 0 || c.Restart.Max < c.Restart.Min:
		return fmt.Errorf("restart backoff %v..%v is not a valid range", c.Restart.Min, c.Restart.Max)
	}
	if _, err := efivar.ParseNamespace(c.Variable.Namespace); err != nil {
		return err
	}
	return nil
}

// ParseAddress parses a hexadecimal physical address with an optional 0x
// prefix. Zero is rejected since it means no address.
func ParseAddress(s string) (uint64, error) {
	h := strings.TrimSpace(s)
	if len(h) > 2 && (h[:2] == "0x" || h[:2] == "0X") {
		h = h[2:]
	}
	a, err := strconv.ParseUint(h, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if a == 0 {
		return 0, fmt.Errorf("invalid address %q: must be non-zero", s)
	}
	return a, nil
}
