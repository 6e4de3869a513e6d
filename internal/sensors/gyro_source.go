// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gesture_lock/internal/config"
	"github.com/relabs-tech/gesture_lock/internal/gyro"
)

// gyroSensitivity is LSB per °/s for each gyro full-scale setting.
var gyroSensitivity = [...]float64{131, 65.5, 32.8, 16.4}

// gyroFullScale is the ±°/s span for each setting, for logging.
var gyroFullScale = [...]int{250, 500, 1000, 2000}

// CountsToRadPerSec converts a raw gyro reading to rad/s.
func CountsToRadPerSec(counts int16, gyroRange byte) float64 {
	if int(gyroRange) >= len(gyroSensitivity) {
		gyroRange = 0
	}
	dps := float64(counts) / gyroSensitivity[gyroRange]
	return dps * math.Pi / 180
}

// gyroSource reads the MPU9250 gyroscope once per data-ready edge, or
// once per tick when no data-ready line is wired.
type gyroSource struct {
	imu       *mpu9250.MPU9250
	gyroRange byte
	ready     gpio.PinIn
	ticker    *time.Ticker
	period    time.Duration
	log       *zap.SugaredLogger
}

// NewGyroSource initializes the MPU9250 over SPI as a gyro.Source.
func NewGyroSource(cfg config.SourceConfig, log *zap.SugaredLogger) (gyro.Source, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("gyro: periph host init: %w", err)
	}

	cs := gpioreg.ByName(cfg.CSPin)
	if cs == nil {
		return nil, fmt.Errorf("gyro: CS pin %q not found", cfg.CSPin)
	}

	tr, err := mpu9250.NewSpiTransport(cfg.SPIDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("gyro: SPI transport (%s): %w", cfg.SPIDevice, err)
	}

	imu, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("gyro: device creation: %w", err)
	}

	if err := imu.Init(); err != nil {
		return nil, fmt.Errorf("gyro: initialization: %w", err)
	}

	if err := imu.SetGyroRange(cfg.GyroRange); err != nil {
		return nil, fmt.Errorf("gyro: set gyro range: %w", err)
	}
	log.Infof("gyro: range set to %d (±%d°/s)", cfg.GyroRange, gyroFullScale[cfg.GyroRange])

	// a still sensor must read zero to normalize to the rest level
	if err := imu.Calibrate(); err != nil {
		log.Warnf("gyro: calibration failed: %v", err)
	} else {
		log.Info("gyro: calibration complete")
	}

	s := &gyroSource{
		imu:       imu,
		gyroRange: cfg.GyroRange,
		log:       log,
	}
	if cfg.RateHz > 0 {
		s.period = time.Second / time.Duration(cfg.RateHz)
	}

	if cfg.DataReadyPin != "" {
		pin := gpioreg.ByName(cfg.DataReadyPin)
		if pin == nil {
			return nil, fmt.Errorf("gyro: data-ready pin %q not found", cfg.DataReadyPin)
		}
		if err := pin.In(gpio.PullDown, gpio.RisingEdge); err != nil {
			return nil, fmt.Errorf("gyro: data-ready pin %s: %w", cfg.DataReadyPin, err)
		}
		s.ready = pin
		log.Infof("gyro: sampling on data-ready edges of %s", cfg.DataReadyPin)
	} else {
		s.ticker = time.NewTicker(s.period)
		log.Infof("gyro: sampling at %d Hz", cfg.RateHz)
	}
	return s, nil
}

// Next waits for the next sample and reads all three axes.
func (s *gyroSource) Next(ctx context.Context) (gyro.Frame, error) {
	if err := s.wait(ctx); err != nil {
		return gyro.Frame{}, err
	}

	gx, err := s.imu.GetRotationX()
	if err != nil {
		return gyro.Frame{}, fmt.Errorf("gyro X: %w", err)
	}
	gy, err := s.imu.GetRotationY()
	if err != nil {
		return gyro.Frame{}, fmt.Errorf("gyro Y: %w", err)
	}
	gz, err := s.imu.GetRotationZ()
	if err != nil {
		return gyro.Frame{}, fmt.Errorf("gyro Z: %w", err)
	}

	return gyro.Frame{
		X: CountsToRadPerSec(gx, s.gyroRange),
		Y: CountsToRadPerSec(gy, s.gyroRange),
		Z: CountsToRadPerSec(gz, s.gyroRange),
	}, nil
}

func (s *gyroSource) wait(ctx context.Context) error {
	if s.ready == nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.ticker.C:
			return nil
		}
	}

	// poll in short slices so cancellation is seen
	timeout := 4 * s.period
	if timeout <= 0 {
		timeout = 200 * time.Millisecond
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.ready.WaitForEdge(timeout) {
			return nil
		}
		s.log.Debug("gyro: no data-ready edge, still waiting")
	}
}

// Close stops pacing and releases the data-ready line.
func (s *gyroSource) Close() error {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	if s.ready != nil {
		return s.ready.Halt()
	}
	return nil
}
