package codec

import (
	"fmt"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"

	"github.com/pocketshuffle/pocketshuffle/internal/fault"
)

// Source is an open track handed to a decoder.
type Source interface {
	io.ReadSeekCloser
}

// Decoder is the capability set the orchestrator drives once per tick.
type Decoder interface {
	// Begin starts decoding src from its current position into out.
	Begin(src Source, out Output) error
	// Loop produces the next slice of audio. It returns false once the
	// track has ended or failed.
	Loop() bool
	IsRunning() bool
	Stop()
}

// Factory builds a decoder for a codec family.
type Factory func(k Kind) (Decoder, error)

type BeepOptions struct {
	// Chunk is the amount of audio produced per Loop call.
	Chunk   time.Duration
	Volume  *Volume
	Quality int
}

// NewBeepFactory returns a Factory producing beep-backed decoders.
func NewBeepFactory(opts BeepOptions) Factory {
	return func(k Kind) (Decoder, error) {
		if k == Unknown {
			return nil, fmt.Errorf("%w: unsupported codec", fault.ErrTrackOpenFailed)
		}
		return NewBeepDecoder(k, opts), nil
	}
}

// BeepDecoder decodes mp3, wav or flac with beep and writes signed 16-bit
// little-endian stereo PCM to its output.
type BeepDecoder struct {
	kind    Kind
	opts    BeepOptions
	stream  beep.StreamSeekCloser
	chain   beep.Streamer
	fx      *effects.Volume
	out     Output
	format  beep.Format
	pcmFmt  beep.Format
	samples [][2]float64
	pcm     []byte
	running bool
	err     error
}

func NewBeepDecoder(k Kind, opts BeepOptions) *BeepDecoder {
	if opts.Chunk <= 0 {
		opts.Chunk = 20 * time.Millisecond
	}
	if opts.Quality <= 0 {
		opts.Quality = 3
	}
	if opts.Volume == nil {
		opts.Volume = NewVolume(DefaultVolumeSteps, DefaultVolumeSteps)
	}
	return &BeepDecoder{kind: k, opts: opts}
}

// readCloser hides Seek so the mp3 decoder reads linearly from the current
// offset instead of scanning the whole file for frame boundaries.
type readCloser struct {
	io.Reader
	io.Closer
}

func (d *BeepDecoder) Begin(src Source, out Output) error {
	d.Stop()
	start, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("%w: %w", fault.ErrTrackOpenFailed, err)
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch d.kind {
	case MP3:
		stream, format, err = mp3.Decode(readCloser{Reader: src, Closer: src})
	case WAV, FLAC:
		stream, format, err = d.decodeSeekable(src, start)
	default:
		err = fmt.Errorf("unsupported codec %s", d.kind)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", fault.ErrTrackOpenFailed, d.kind, err)
	}

	d.stream = stream
	d.format = format
	d.out = out
	var chain beep.Streamer = stream
	if rate := out.SampleRate(); rate != format.SampleRate {
		chain = beep.Resample(d.opts.Quality, format.SampleRate, rate, chain)
	}
	d.fx = &effects.Volume{Streamer: chain, Base: 2}
	d.chain = d.fx
	frames := max(1, out.SampleRate().N(d.opts.Chunk))
	d.samples = make([][2]float64, frames)
	d.pcmFmt = beep.Format{SampleRate: out.SampleRate(), NumChannels: 2, Precision: 2}
	d.pcm = make([]byte, frames*d.pcmFmt.Width())
	d.running = true
	d.err = nil
	return nil
}

// decodeSeekable decodes from the start of the file, then positions the
// stream proportionally to the resume byte offset.
func (d *BeepDecoder) decodeSeekable(src Source, start int64) (beep.StreamSeekCloser, beep.Format, error) {
	var size int64
	if start > 0 {
		end, err := src.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, beep.Format{}, err
		}
		size = end
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, beep.Format{}, err
	}
	var (
		stream beep.StreamSeekCloser
		format beep.Format
		err    error
	)
	if d.kind == WAV {
		stream, format, err = wav.Decode(src)
	} else {
		stream, format, err = flac.Decode(src)
	}
	if err != nil {
		return nil, format, err
	}
	if start > 0 && size > 0 {
		if n := stream.Len(); n > 0 {
			target := int(int64(n) * start / size)
			if err := stream.Seek(min(target, n-1)); err != nil {
				stream.Close()
				return nil, format, err
			}
		}
	}
	return stream, format, nil
}

func (d *BeepDecoder) Loop() bool {
	if !d.running {
		return false
	}
	d.fx.Volume, d.fx.Silent = d.opts.Volume.Gain()
	n, ok := d.chain.Stream(d.samples)
	if n > 0 {
		w := 0
		for i := 0; i < n; i++ {
			w += d.pcmFmt.EncodeSigned(d.pcm[w:], d.samples[i])
		}
		if _, err := d.out.Write(d.pcm[:w]); err != nil {
			d.fail(fmt.Errorf("%w: output: %w", fault.ErrDecode, err))
			return false
		}
	}
	if !ok || n == 0 {
		if err := d.stream.Err(); err != nil {
			d.fail(fmt.Errorf("%w: %s: %w", fault.ErrDecode, d.kind, err))
		}
		d.running = false
		return false
	}
	return true
}

func (d *BeepDecoder) fail(err error) {
	d.err = err
	d.running = false
}

func (d *BeepDecoder) IsRunning() bool { return d.running }

// Err reports the decode error that ended the track, if any.
func (d *BeepDecoder) Err() error { return d.err }

// Format is the native format of the current track.
func (d *BeepDecoder) Format() beep.Format { return d.format }

func (d *BeepDecoder) Stop() {
	if d.stream != nil {
		d.stream.Close()
		d.stream = nil
	}
	d.chain = nil
	d.running = false
}
