package apu

import "math"

// voice is the audio-side playback state of one channel.
type voice struct {
	phase   float64 // [0, 1)
	gen     uint32
	stopped bool
}

type mixer struct {
	voices [Channels]voice
}

// NextSample advances every channel by one output sample and returns the
// mixed left and right values. Channel outputs are summed with 16-bit
// wraparound, not saturation. Only the audio consumer may call it.
func (a *APU) NextSample() (left, right uint16) {
	waves := a.waves.Load()
	rate := float64(a.sampleRate)
	for i := range a.mix.voices {
		p := a.params[i].Load()
		v := &a.mix.voices[i]
		if p.Gen != v.gen {
			v.gen = p.Gen
			v.phase = 0
			v.stopped = false
		}
		if !p.Active || v.stopped {
			continue
		}

		v.phase += float64(p.Freq) / rate
		if v.phase >= 1 {
			if !p.Repeat {
				v.stopped = true
				continue
			}
			v.phase = math.Mod(v.phase+float64(p.Loop)/WaveEntry, 1)
		}

		idx := int(v.phase*WaveEntry) + WaveEntry*int(p.Wave)
		full := float32(uint16(waves[idx]) * SampleCost)
		gl, gr := p.gain()
		left += uint16(full * gl)
		right += uint16(full * gr)
	}
	return left, right
}

// Fill writes interleaved left/right samples into buf and returns the
// number of frames produced.
func (a *APU) Fill(buf []uint16) int {
	n := len(buf) / 2
	for i := 0; i < n; i++ {
		buf[2*i], buf[2*i+1] = a.NextSample()
	}
	return n
}
