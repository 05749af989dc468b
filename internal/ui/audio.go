package ui

import (
	"time"

	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/audioout"
	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/emu"
	"github.com/hajimehoshi/ebiten/v2/audio"
)

// monoSource folds the machine's stereo mix into both channels.
type monoSource struct{ m *emu.Machine }

func (s monoSource) Fill(buf []uint16) int {
	n := s.m.Fill(buf)
	for i := 0; i < n; i++ {
		v := uint16((uint32(buf[2*i]) + uint32(buf[2*i+1])) / 2)
		buf[2*i], buf[2*i+1] = v, v
	}
	return n
}

// startAudio (re)creates the player for the current stereo setting. The
// audio unit is pulled directly by the player goroutine, so there is no
// sample queue to size beyond the player buffer.
func (a *App) startAudio() {
	a.stopAudio()
	if a.audioCtx == nil {
		return
	}
	var src audioout.Source = a.m
	if !a.cfg.AudioStereo {
		src = monoSource{a.m}
	}
	a.audioSrc = audioout.NewStream(src)
	a.audioSrc.SetMuted(a.cfg.AudioMuted)
	p, err := a.audioCtx.NewPlayer(a.audioSrc)
	if err != nil {
		a.toast("Audio failed: " + err.Error())
		return
	}
	a.audioPlayer = p
	a.applyPlayerBufferSize()
	a.audioPlayer.Play()
}

func (a *App) stopAudio() {
	if a.audioPlayer != nil {
		a.audioPlayer.Close()
		a.audioPlayer = nil
	}
}

// applyPlayerBufferSize picks ~20ms in low-latency mode or during
// fast-forward, the configured size otherwise.
func (a *App) applyPlayerBufferSize() {
	if a.audioPlayer == nil {
		return
	}
	bufMs := a.cfg.AudioBufferMs
	if a.cfg.AudioLowLatency || a.fast {
		bufMs = 20
	}
	a.audioPlayer.SetBufferSize(time.Duration(bufMs) * time.Millisecond)
}

// Close stops the player; the machine registers it as an audio output.
func (a *App) Close() error {
	a.stopAudio()
	return nil
}

func newAudioContext(rate int) *audio.Context {
	if c := audio.CurrentContext(); c != nil {
		return c
	}
	return audio.NewContext(rate)
}
