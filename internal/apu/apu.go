package apu

import (
	"bytes"
	"encoding/gob"
	"sync/atomic"
)

const (
	Channels          = 8
	DefaultSampleRate = 44100

	WaveEntry = 256             // samples per waveform
	WaveSize  = WaveEntry * 128 // wave table memory
	// SampleCost scales an 8-bit wave sample before the stereo gains.
	SampleCost = 64
)

// Channel sub-registers selected by the low three address bits.
const (
	RegFreqLo = iota
	RegFreqHi
	RegVolL
	RegVolR
	RegWave
	RegLoopLo
	RegLoopHi
)

// RegMask is the first all-channels mask register; even addresses set the
// active flags from the mask, odd addresses only turn channels on.
const RegMask = 0x40

// Params is an immutable snapshot of one channel's registers. A new value
// is published on every register write.
type Params struct {
	Active bool
	Freq   uint16 // 14 bits
	VolL   byte
	VolR   byte
	Wave   byte // 7 bits
	Loop   uint16
	Repeat bool
	// Gen changes whenever the channel must restart from phase 0.
	Gen uint32
}

// gain returns the left and right multipliers.
func (p *Params) gain() (float32, float32) {
	return float32(p.VolL) / 255, float32(p.VolR) / 255
}

// APU is the 8-channel wavetable synthesizer. Registers are written from
// the emulation goroutine; samples are pulled from the audio goroutine.
// The two sides share only atomic pointers.
type APU struct {
	sampleRate int

	regs   [Channels]Params // writer-side copy
	params [Channels]atomic.Pointer[Params]
	waves  atomic.Pointer[[WaveSize]byte]

	mix mixer // reader side
}

func New(sampleRate int) *APU {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	a := &APU{sampleRate: sampleRate}
	a.waves.Store(new([WaveSize]byte))
	a.Reset()
	return a
}

func (a *APU) SampleRate() int { return a.sampleRate }

// Reset silences every channel and restores register defaults.
func (a *APU) Reset() {
	for i := range a.regs {
		gen := a.regs[i].Gen + 1
		a.regs[i] = Params{Gen: gen}
		a.publish(i)
	}
}

// LoadWaves replaces wave table memory; short input is zero-padded.
func (a *APU) LoadWaves(data []byte) {
	w := new([WaveSize]byte)
	copy(w[:], data)
	a.waves.Store(w)
}

// Channel returns the current published parameters of channel i.
func (a *APU) Channel(i int) Params { return *a.params[i&7].Load() }

func (a *APU) publish(i int) {
	p := a.regs[i]
	a.params[i].Store(&p)
}

// WriteRegister handles a write to audio register reg (address & 0xFFF).
func (a *APU) WriteRegister(reg uint16, v byte) {
	if reg >= 0x80 {
		return
	}
	if reg&RegMask != 0 {
		a.writeMask(v, reg&1 == 0)
		return
	}
	i := int(reg>>3) & 7
	r := &a.regs[i]
	switch reg & 7 {
	case RegFreqLo:
		r.Freq = r.Freq&0x3F00 | uint16(v)
		r.Gen++
	case RegFreqHi:
		r.Freq = r.Freq&0x00FF | uint16(v&0x3F)<<8
		r.Gen++
	case RegVolL:
		r.VolL = v
	case RegVolR:
		r.VolR = v
	case RegWave:
		r.Wave = v & 0x7F
		r.Gen++
	case RegLoopLo:
		r.Loop = r.Loop&0x100 | uint16(v)
	case RegLoopHi:
		if v >= 2 {
			r.Repeat = false
		} else {
			r.Loop = r.Loop&0xFF | uint16(v)<<8
			r.Repeat = true
		}
	default:
		return
	}
	a.publish(i)
}

// writeMask applies the all-channels mask. Channel i uses bit i^7.
func (a *APU) writeMask(mask byte, overwrite bool) {
	for i := range a.regs {
		on := mask&(1<<(i^7)) != 0
		if !on && !overwrite {
			continue
		}
		r := &a.regs[i]
		if on && !r.Active {
			r.Gen++
		}
		if r.Active == on {
			continue
		}
		r.Active = on
		a.publish(i)
	}
}

// --- Save/Load state ---
type apuState struct {
	Regs [Channels]Params
}

// SaveState serializes channel registers. Playback position is not kept;
// channels restart from phase 0 after LoadState.
func (a *APU) SaveState() []byte {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	_ = enc.Encode(apuState{Regs: a.regs})
	return buf.Bytes()
}

func (a *APU) LoadState(data []byte) error {
	var s apuState
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&s); err != nil {
		return err
	}
	for i := range a.regs {
		gen := a.regs[i].Gen + 1
		a.regs[i] = s.Regs[i]
		a.regs[i].Gen = gen
		a.publish(i)
	}
	return nil
}
