// Package capture records rendered frames to video through an ffmpeg
// subprocess fed raw RGBA over a pipe.
package capture

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

var (
	ErrFrameSize = errors.New("frame size does not match recorder")
	ErrClosed    = errors.New("recorder closed")
)

type Settings struct {
	Path       string
	Width      int
	Height     int
	FPS        int
	Codec      string
	FFmpegPath string
}

func (s Settings) frameSize() int { return s.Width * s.Height * 4 }

// Args returns the ffmpeg input and output arguments. Frames arrive
// bottom row first, as read back from the framebuffer, so the output is
// flipped vertically.
func Args(s Settings) (inputArgs ffmpeg.KwArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{
		"f":         "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", s.Width, s.Height),
		"framerate": s.FPS,
	}
	outputArgs = ffmpeg.KwArgs{
		"vf":      "vflip",
		"c:v":     s.Codec,
		"pix_fmt": "yuv420p",
	}
	return
}

// runner executes the compiled ffmpeg stream reading frames from in.
type runner func(stream *ffmpeg.Stream, in io.Reader) error

func runFFmpeg(stream *ffmpeg.Stream, in io.Reader) error {
	return stream.WithInput(in).ErrorToStdOut().Run()
}

// Recorder streams frames of one fixed size into a video file.
type Recorder struct {
	settings Settings
	pw       *io.PipeWriter
	errc     chan error

	mu     sync.Mutex
	frames int
	closed bool
	err    error
}

func NewRecorder(s Settings) (*Recorder, error) {
	return newRecorder(s, runFFmpeg)
}

func newRecorder(s Settings, run runner) (*Recorder, error) {
	if s.Path == "" {
		return nil, fmt.Errorf("capture: no output path")
	}
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("capture %s: invalid size %dx%d", s.Path, s.Width, s.Height)
	}
	if s.FPS <= 0 {
		return nil, fmt.Errorf("capture %s: invalid frame rate %d", s.Path, s.FPS)
	}
	if s.Codec == "" {
		s.Codec = "libx264"
	}

	inputArgs, outputArgs := Args(s)
	stream := ffmpeg.Input("pipe:", inputArgs).
		Output(s.Path, outputArgs).
		OverWriteOutput()
	if s.FFmpegPath != "" {
		stream = stream.SetFfmpegPath(s.FFmpegPath)
	}

	pr, pw := io.Pipe()
	r := &Recorder{settings: s, pw: pw, errc: make(chan error, 1)}
	go func() {
		err := run(stream, pr)
		// unblock writers if ffmpeg exits early
		pr.CloseWithError(errors.Join(io.ErrClosedPipe, err))
		r.errc <- err
	}()
	log.Printf("Recording %dx%d at %d fps to %s (%s)", s.Width, s.Height, s.FPS, s.Path, s.Codec)
	return r, nil
}

func (r *Recorder) Settings() Settings { return r.settings }

// Frames is the number of frames written so far.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// WriteFrame sends one RGBA frame, bottom row first.
func (r *Recorder) WriteFrame(pixels []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.err != nil {
		return r.err
	}
	if len(pixels) != r.settings.frameSize() {
		return fmt.Errorf("capture %s: got %d bytes, want %d: %w", r.settings.Path, len(pixels), r.settings.frameSize(), ErrFrameSize)
	}
	if _, err := r.pw.Write(pixels); err != nil {
		r.err = fmt.Errorf("capture %s: ffmpeg stopped: %w", r.settings.Path, err)
		return r.err
	}
	r.frames++
	return nil
}

// Close ends the input stream and waits for ffmpeg to finish the file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	frames := r.frames
	r.mu.Unlock()

	r.pw.Close()
	if err := <-r.errc; err != nil {
		return fmt.Errorf("capture %s: %w", r.settings.Path, err)
	}
	log.Printf("Wrote %d frames to %s", frames, r.settings.Path)
	return nil
}
