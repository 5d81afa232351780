// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"errors"

	"github.com/gogpu/wgpu/hal"
)

// Errors.
var (
	// ErrUnavailable is returned when no presentable image can be acquired
	// right now: the window is minimized, the swap chain is out of date, or
	// acquisition timed out. The caller skips the frame and tries again.
	ErrUnavailable = errors.New("surface: presentable image unavailable")

	// ErrDeviceLost is returned when the device backing the swap chain is
	// gone. It is not recoverable.
	ErrDeviceLost = errors.New("surface: device lost")

	// ErrReleased is returned by a Manager after Release.
	ErrReleased = errors.New("surface: released")

	// ErrInvalidFrame is returned when a frame is presented or discarded
	// that the target did not hand out, or that was already returned.
	ErrInvalidFrame = errors.New("surface: invalid frame")
)

// Target is a presentation target: the platform swap chain behind a window,
// or an offscreen substitute.
//
// Targets are NOT thread-safe. A target is driven from the same goroutine
// that renders.
type Target interface {
	// Configure (re)creates the swap chain with cfg. Images acquired under
	// a previous configuration must have been presented or discarded.
	Configure(device hal.Device, cfg Config) error

	// Unconfigure releases the swap chain. The target may be configured
	// again afterwards.
	Unconfigure(device hal.Device)

	// Acquire returns the next presentable image. It returns an error
	// wrapping ErrUnavailable when the frame should be skipped and
	// ErrDeviceLost when rendering cannot continue.
	Acquire() (*Frame, error)

	// Present queues f for display.
	Present(queue hal.Queue, f *Frame) error

	// Discard returns f without displaying it.
	Discard(f *Frame)
}
