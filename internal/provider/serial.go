// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package provider

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"
	"go.uber.org/zap"

	"github.com/relabs-tech/location_viewer/internal/geo"
)

// SerialOptions configures the serial NMEA backend.
type SerialOptions struct {
	Port        string
	BaudRate    uint
	MinInterval time.Duration // watch: minimum time between delivered fixes
	MinDistance float64       // watch: movement in meters that bypasses MinInterval
}

// SerialProvider reads NMEA sentences from a GPS receiver on a serial port.
// Opening the device node is the permission gate: a declined OS permission
// surfaces as ErrPermissionDenied. Each operation opens its own port handle,
// so a one-shot read can run while a watch is active.
type SerialProvider struct {
	opts SerialOptions
	log  *zap.SugaredLogger

	// openPort is swapped out by tests.
	openPort func() (io.ReadCloser, error)
}

func NewSerialProvider(opts SerialOptions, log *zap.SugaredLogger) *SerialProvider {
	p := &SerialProvider{opts: opts, log: log}
	p.openPort = func() (io.ReadCloser, error) {
		return serial.Open(serial.OpenOptions{
			PortName:        opts.Port,
			BaudRate:        opts.BaudRate,
			DataBits:        8,
			StopBits:        1,
			MinimumReadSize: 1,
			ParityMode:      serial.PARITY_NONE,
		})
	}
	return p
}

func (p *SerialProvider) Kind() Kind { return KindSerial }

// RequestPermission probes the device node. The receiver itself needs no
// handshake, so open-then-close is the whole permission check.
func (p *SerialProvider) RequestPermission(_ context.Context) error {
	port, err := p.open()
	if err != nil {
		return err
	}
	return port.Close()
}

func (p *SerialProvider) open() (io.ReadCloser, error) {
	port, err := p.openPort()
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%w: open %s: %v", ErrPermissionDenied, p.opts.Port, err)
		}
		return nil, fmt.Errorf("%w: open %s: %v", ErrLocationUnavailable, p.opts.Port, err)
	}
	return port, nil
}

// GetOnce blocks until the receiver produces a valid RMC sentence. There is
// deliberately no internal deadline: a receiver without satellite lock simply
// has no fix yet, and the screen waits for one. The context is the only way
// out; callers that want a bound must bring their own.
func (p *SerialProvider) GetOnce(ctx context.Context) (geo.Coordinate, error) {
	port, err := p.open()
	if err != nil {
		return geo.Coordinate{}, err
	}
	defer port.Close()

	// Closing the port is the only way to unblock a pending read.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			port.Close()
		case <-done:
		}
	}()

	fix, err := readFix(bufio.NewReader(port))
	if err != nil {
		if ctx.Err() != nil {
			return geo.Coordinate{}, fmt.Errorf("%w: %v", ErrLocationUnavailable, ctx.Err())
		}
		return geo.Coordinate{}, fmt.Errorf("%w: read %s: %v", ErrLocationUnavailable, p.opts.Port, err)
	}
	return fix, nil
}

// StartWatch opens the port and streams fixes until the handle is stopped.
// Fixes are delivered when MinInterval has elapsed or the receiver moved
// MinDistance, whichever comes first.
func (p *SerialProvider) StartWatch(onFix FixFunc, onError ErrorFunc) (*Watch, error) {
	port, err := p.open()
	if err != nil {
		return nil, err
	}

	w := NewWatch(KindSerial, func() {
		if err := port.Close(); err != nil {
			p.log.Debugf("serial: close %s: %v", p.opts.Port, err)
		}
	})

	go p.watchLoop(port, w, onFix, onError)
	return w, nil
}

func (p *SerialProvider) watchLoop(port io.ReadCloser, w *Watch, onFix FixFunc, onError ErrorFunc) {
	reader := bufio.NewReader(port)

	var last geo.Coordinate
	var lastAt time.Time

	for {
		fix, err := readFix(reader)
		if w.Stopped() {
			return
		}
		if err != nil {
			// The receiver has no documented fatal failures; report and
			// keep the handle alive. A broken port errors instantly, so
			// back off before retrying.
			onError(fmt.Errorf("%w: read %s: %v", ErrLocationUnavailable, p.opts.Port, err))
			time.Sleep(time.Second)
			continue
		}

		if !lastAt.IsZero() &&
			time.Since(lastAt) < p.opts.MinInterval &&
			geo.Distance(last, fix) < p.opts.MinDistance {
			continue
		}
		last, lastAt = fix, time.Now()
		onFix(fix)
	}
}

// readFix consumes sentences until the first valid RMC and converts it.
// Partial and non-RMC sentences are skipped; noisy receivers emit plenty of
// both.
func readFix(reader *bufio.Reader) (geo.Coordinate, error) {
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return geo.Coordinate{}, err
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			continue
		}

		if sentence.DataType() != nmea.TypeRMC {
			continue
		}
		m := sentence.(nmea.RMC)
		if m.Validity != nmea.ValidRMC {
			continue
		}
		return rmcToCoordinate(m), nil
	}
}

func rmcToCoordinate(m nmea.RMC) geo.Coordinate {
	ts := time.Now().UTC()
	if m.Date.Valid && m.Time.Valid {
		ts = time.Date(2000+m.Date.YY, time.Month(m.Date.MM), m.Date.DD,
			m.Time.Hour, m.Time.Minute, m.Time.Second, m.Time.Millisecond*1e6,
			time.UTC)
	}
	return geo.Coordinate{
		Latitude:  m.Latitude,
		Longitude: m.Longitude,
		Heading:   m.Course,
		Speed:     geo.KnotsToMetersPerSecond(m.Speed),
		Time:      ts,
	}
}
