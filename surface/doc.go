// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface manages the presentable swap chain that frames are
// copied into.
//
// A [Target] is where images come from: a window surface ([HALTarget]) or
// an offscreen ring of textures ([Offscreen]) for headless runs and tests.
// A [Manager] owns one target, configures it once at creation and
// rebuilds it on every resize with the same format and present mode.
//
// # Suspension
//
// Resizing to a zero width or height (a minimized window) suspends the
// manager. [Manager.Acquire] then returns [ErrUnavailable] until the next
// non-zero resize. Callers treat ErrUnavailable as "skip this frame".
//
// # Registry
//
// Targets can be selected by name through the registry:
//
//	t, err := surface.NewTargetByName("offscreen", surface.Options{})
//
//	// Prefer a window, fall back to offscreen:
//	t, err := surface.NewTarget(surface.Options{Window: win})
//
// # Usage
//
//	m, err := surface.NewManager(device, queue, t, surface.DefaultConfig(800, 600))
//	if err != nil {
//	    return err
//	}
//	defer m.Release()
//
//	frame, err := m.Acquire()
//	if errors.Is(err, surface.ErrUnavailable) {
//	    return nil // skip
//	}
//	// ... render into frame.View, submit ...
//	err = m.Present(frame)
package surface
