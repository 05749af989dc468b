package emu

import "time"

// Config contains settings that affect emulation behavior.
type Config struct {
	// CyclesPerFrame is the processor budget per frame in bus accesses.
	CyclesPerFrame int
	// WallClock runs the processor until FrameBudget of host time has
	// passed instead of using CyclesPerFrame. Not deterministic.
	WallClock   bool
	FrameBudget time.Duration
	// Seed drives the power-on fill of work RAM and the accumulators.
	// A negative seed picks one from the host clock.
	Seed       int64
	SampleRate int
	Trace      bool // log processor instructions
}

// Defaults returns the deterministic configuration.
func Defaults() Config {
	return Config{
		CyclesPerFrame: 200000,
		FrameBudget:    16 * time.Millisecond,
		SampleRate:     44100,
	}
}

func (c Config) normalized() Config {
	d := Defaults()
	if c.CyclesPerFrame <= 0 {
		c.CyclesPerFrame = d.CyclesPerFrame
	}
	if c.FrameBudget <= 0 {
		c.FrameBudget = d.FrameBudget
	}
	if c.SampleRate <= 0 {
		c.SampleRate = d.SampleRate
	}
	return c
}
