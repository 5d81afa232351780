// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// Manager owns the swap chain of one Target and rebuilds it on resize.
//
// Format and present mode are fixed at creation; only the size changes.
// A zero width or height suspends the manager: Acquire reports
// ErrUnavailable until the next non-zero Resize.
//
// Manager is NOT thread-safe.
type Manager struct {
	device hal.Device
	queue  hal.Queue
	target Target
	cfg    Config

	configured bool
	suspended  bool
	released   bool
}

// NewManager configures target with cfg. A zero-sized cfg creates a
// suspended manager.
func NewManager(device hal.Device, queue hal.Queue, target Target, cfg Config) (*Manager, error) {
	if device == nil || queue == nil {
		return nil, errors.New("surface: device and queue are required")
	}
	if target == nil {
		return nil, errors.New("surface: target is required")
	}
	if cfg.Format == 0 {
		cfg.Format = DefaultFormat
	}
	m := &Manager{device: device, queue: queue, target: target, cfg: cfg}
	if cfg.Width == 0 || cfg.Height == 0 {
		m.suspended = true
		return m, nil
	}
	if err := target.Configure(device, cfg); err != nil {
		return nil, fmt.Errorf("surface: configure %dx%d: %w", cfg.Width, cfg.Height, err)
	}
	m.configured = true
	Logger().Info("surface: configured",
		"width", cfg.Width, "height", cfg.Height, "present_mode", cfg.PresentMode.String())
	return m, nil
}

// Resize rebuilds the swap chain at the new size with the same format and
// present mode.
//
// A zero dimension suspends presentation and leaves the current swap chain
// alone. If the target rejects the new size, the previous configuration is
// restored and the error is returned.
func (m *Manager) Resize(width, height uint32) error {
	if m.released {
		return ErrReleased
	}
	if width == 0 || height == 0 {
		m.suspended = true
		Logger().Debug("surface: suspended", "width", width, "height", height)
		return nil
	}

	next := m.cfg.WithSize(width, height)
	if err := m.target.Configure(m.device, next); err != nil {
		if m.configured {
			if rerr := m.target.Configure(m.device, m.cfg); rerr != nil {
				Logger().Warn("surface: restore previous configuration failed", "err", rerr)
				m.configured = false
			}
		}
		return fmt.Errorf("surface: configure %dx%d: %w", width, height, err)
	}
	m.cfg = next
	m.configured = true
	m.suspended = false
	Logger().Debug("surface: reconfigured", "width", width, "height", height)
	return nil
}

// Acquire returns the next presentable frame.
func (m *Manager) Acquire() (*Frame, error) {
	if m.released {
		return nil, ErrReleased
	}
	if m.suspended || !m.configured {
		return nil, ErrUnavailable
	}
	return m.target.Acquire()
}

// Present queues f for display.
func (m *Manager) Present(f *Frame) error {
	if m.released {
		return ErrReleased
	}
	if f == nil {
		return ErrInvalidFrame
	}
	return m.target.Present(m.queue, f)
}

// Discard returns f to the target without displaying it. Safe to call
// with nil.
func (m *Manager) Discard(f *Frame) {
	if m.released || f == nil {
		return
	}
	m.target.Discard(f)
}

// Release unconfigures the target. Release is idempotent.
func (m *Manager) Release() {
	if m.released {
		return
	}
	m.released = true
	if m.configured {
		m.target.Unconfigure(m.device)
		m.configured = false
	}
	Logger().Info("surface: released")
}

// Size returns the dimensions of the current swap chain.
func (m *Manager) Size() (uint32, uint32) {
	return m.cfg.Width, m.cfg.Height
}

// Config returns the current swap chain configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Suspended reports whether presentation is suspended by a zero-sized
// resize.
func (m *Manager) Suspended() bool {
	return m.suspended
}

// Released reports whether Release has been called.
func (m *Manager) Released() bool {
	return m.released
}
