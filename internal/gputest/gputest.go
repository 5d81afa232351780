//go:build !nogpu

// Package gputest provides HAL devices for tests: a noop device, and a
// tracing wrapper that records resource lifetimes and the order of
// recorded passes.
package gputest

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// NewNoopDevice opens a device on the noop backend. The device and its
// instance are destroyed when the test ends.
func NewNoopDevice(t testing.TB) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		t.Fatal("noop backend reported no adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

// NewTracingDevice opens a noop device and wraps it and its queue in
// tracing wrappers.
func NewTracingDevice(t testing.TB) (*Device, *Queue) {
	t.Helper()
	device, queue := NewNoopDevice(t)
	d := &Device{Device: device}
	return d, &Queue{Queue: queue, device: d}
}

// FakeSPIRV returns a minimal word stream that starts with the SPIR-V
// magic number. Sufficient for the noop backend, which does not parse
// shader code.
func FakeSPIRV() []uint32 {
	return []uint32{0x07230203, 0x00010300, 0, 1, 0}
}

// FakeSPIRVBytes is FakeSPIRV encoded little-endian.
func FakeSPIRVBytes() []byte {
	words := FakeSPIRV()
	b := make([]byte, 0, len(words)*4)
	for _, w := range words {
		b = append(b, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	return b
}
