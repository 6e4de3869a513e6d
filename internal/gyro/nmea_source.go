// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gyro

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"
	"go.uber.org/zap"
)

// TypeGYR is the sentence type of the gyro bridge sentence
// "$GYGYR,<x>,<y>,<z>*hh", rates in rad/s.
const TypeGYR = "GYR"

// GYR is one angular-rate sentence from a serial gyro bridge.
type GYR struct {
	nmea.BaseSentence
	X float64
	Y float64
	Z float64
}

func init() {
	if err := nmea.RegisterParser(TypeGYR, parseGYR); err != nil {
		panic(err)
	}
}

func parseGYR(s nmea.BaseSentence) (nmea.Sentence, error) {
	p := nmea.NewParser(s)
	m := GYR{
		BaseSentence: s,
		X:            p.Float64(0, "x"),
		Y:            p.Float64(1, "y"),
		Z:            p.Float64(2, "z"),
	}
	return m, p.Err()
}

// ParseLine turns one line from the bridge into a frame. ok is false for
// blank lines, non-sentences and other sentence types. NaN or infinite
// rates are an error.
func ParseLine(line string) (f Frame, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "$") {
		return Frame{}, false, nil
	}
	sentence, err := nmea.Parse(line)
	if err != nil {
		return Frame{}, false, err
	}
	m, isGYR := sentence.(GYR)
	if !isGYR {
		return Frame{}, false, nil
	}
	f = Frame{X: m.X, Y: m.Y, Z: m.Z}
	if !f.Finite() {
		return Frame{}, false, fmt.Errorf("%w in %q", ErrNonFinite, line)
	}
	return f, true, nil
}

type nmeaSource struct {
	port   io.ReadWriteCloser
	frames chan Frame

	// closed once the reader stops; err says why
	done chan struct{}
	err  error
}

// NewNMEASource opens a serial gyro bridge. The bridge paces the stream,
// one sentence per data-ready tick.
func NewNMEASource(ctx context.Context, portName string, baud int, log *zap.SugaredLogger) (Source, error) {
	serialOpts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, fmt.Errorf("gyro bridge: open %s: %w", portName, err)
	}
	log.Infof("gyro bridge serial port opened on %s at %d baud", portName, baud)

	s := &nmeaSource{
		port:   port,
		frames: make(chan Frame, 1),
		done:   make(chan struct{}),
	}
	go s.read(ctx, log)
	go func() {
		<-ctx.Done()
		port.Close()
	}()
	return s, nil
}

func (s *nmeaSource) read(ctx context.Context, log *zap.SugaredLogger) {
	defer close(s.done)
	reader := bufio.NewReader(s.port)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			s.err = fmt.Errorf("gyro bridge: read: %w", err)
			return
		}
		f, ok, err := ParseLine(line)
		if err != nil {
			// noisy line or partial sentence
			log.Debugf("gyro bridge: parse error: %v (line: %q)", err, line)
			continue
		}
		if !ok {
			continue
		}
		select {
		case s.frames <- f:
		case <-ctx.Done():
			s.err = ctx.Err()
			return
		}
	}
}

func (s *nmeaSource) Next(ctx context.Context) (Frame, error) {
	select {
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case f := <-s.frames:
		return f, nil
	case <-s.done:
		return Frame{}, s.err
	}
}
