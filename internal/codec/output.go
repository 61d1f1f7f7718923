package codec

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/gopxl/beep/v2"
)

const DefaultSampleRate = beep.SampleRate(44100)

// Output is the sample sink a decoder writes interleaved PCM into.
type Output interface {
	io.Writer
	SampleRate() beep.SampleRate
}

// WriterOutput sends PCM to an io.Writer such as a file or a FIFO read by
// an external player.
type WriterOutput struct {
	mu      sync.Mutex
	w       io.Writer
	rate    beep.SampleRate
	written int64
}

func NewWriterOutput(w io.Writer, rate beep.SampleRate) *WriterOutput {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	return &WriterOutput{w: w, rate: rate}
}

// Discard is an output that drops every sample.
func Discard(rate beep.SampleRate) *WriterOutput {
	return NewWriterOutput(io.Discard, rate)
}

// OpenFile creates (or opens a FIFO at) path and returns an output writing
// to it with the file to close when done.
func OpenFile(path string, rate beep.SampleRate) (*WriterOutput, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return NewWriterOutput(f, rate), f, nil
}

func (o *WriterOutput) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	n, err := o.w.Write(p)
	o.written += int64(n)
	return n, err
}

func (o *WriterOutput) SampleRate() beep.SampleRate { return o.rate }

// Written is the number of PCM bytes accepted so far.
func (o *WriterOutput) Written() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.written
}
