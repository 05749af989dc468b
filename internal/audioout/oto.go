package audioout

import (
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

// OtoPlayer plays a Source on the host audio device. Read runs on the
// oto goroutine and never blocks on the control mutex.
type OtoPlayer struct {
	ctx     *oto.Context
	player  *oto.Player
	stream  atomic.Pointer[Stream]
	started bool
	mutex   sync.Mutex // setup and control only
}

// NewOtoPlayer opens the audio device for 16-bit stereo at sampleRate.
// Only one oto context may exist per process.
func NewOtoPlayer(sampleRate int) (*OtoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready
	return &OtoPlayer{ctx: ctx}, nil
}

func (op *OtoPlayer) SetupPlayer(src Source) {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	op.stream.Store(NewStream(src))
	op.player = op.ctx.NewPlayer(op)
}

func (op *OtoPlayer) Read(p []byte) (int, error) {
	s := op.stream.Load()
	if s == nil {
		clear(p)
		return len(p), nil
	}
	return s.Read(p)
}

func (op *OtoPlayer) Start() {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	if !op.started && op.player != nil {
		op.player.Play()
		op.started = true
	}
}

func (op *OtoPlayer) Stop() {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	if op.started && op.player != nil {
		op.player.Pause()
		op.started = false
	}
}

// Close stops playback and detaches the source so the machine may
// release channel state afterwards.
func (op *OtoPlayer) Close() error {
	op.Stop()
	op.mutex.Lock()
	defer op.mutex.Unlock()
	op.stream.Store(nil)
	if op.player == nil {
		return nil
	}
	err := op.player.Close()
	op.player = nil
	return err
}

func (op *OtoPlayer) IsStarted() bool {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	return op.started
}
