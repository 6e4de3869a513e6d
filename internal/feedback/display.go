// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package feedback

import (
	"fmt"
	"image"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gesture_lock/internal/auth"
)

// Screen is the part of ssd1306.Dev the display sink uses.
type Screen interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// Display renders status cards on a 128x64 OLED.
type Display struct {
	screen Screen
	log    *zap.SugaredLogger
	last   Status
}

// NewDisplay wraps a screen and shows the idle card.
func NewDisplay(screen Screen, log *zap.SugaredLogger) *Display {
	d := &Display{screen: screen, log: log}
	d.show(IdleStatus())
	return d
}

// OpenSSD1306 opens the OLED on the named I2C bus ("" = first bus). The
// returned closer releases the bus.
func OpenSSD1306(busName string) (*ssd1306.Dev, i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize periph: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	return dev, bus, nil
}

func (d *Display) Notify(e auth.Event) {
	s := StatusFor(e)
	// progress ticks only redraw when the bar moves a pixel
	if s.Title == d.last.Title && s.Detail == d.last.Detail && barWidth(s.Progress) == barWidth(d.last.Progress) {
		return
	}
	d.show(s)
}

func (d *Display) show(s Status) {
	d.last = s
	if err := d.screen.Draw(d.screen.Bounds(), renderCard(s), image.Point{}); err != nil {
		d.log.Warnf("display: draw: %v", err)
	}
}

const barMax = 120

func barWidth(p float64) int {
	if p < 0 {
		return -1
	}
	if p > 1 {
		p = 1
	}
	return int(p * barMax)
}

// renderCard draws a status card: title, detail, and a progress bar
// while recording.
func renderCard(s Status) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(0, 20)
	drawer.DrawString(s.Title)

	if s.Detail != "" {
		drawer.Dot = fixed.P(0, 36)
		drawer.DrawString(s.Detail)
	}

	if w := barWidth(s.Progress); w >= 0 {
		// outline, then fill
		for x := 4; x <= 4+barMax; x++ {
			img.SetBit(x, 50, image1bit.On)
			img.SetBit(x, 58, image1bit.On)
		}
		for y := 50; y <= 58; y++ {
			img.SetBit(4, y, image1bit.On)
			img.SetBit(4+barMax, y, image1bit.On)
		}
		for x := 4; x < 4+w; x++ {
			for y := 52; y <= 56; y++ {
				img.SetBit(x, y, image1bit.On)
			}
		}
	}
	return img
}
