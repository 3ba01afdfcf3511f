package capture

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

func settings() Settings {
	return Settings{Path: "out.mp4", Width: 2, Height: 2, FPS: 30, Codec: "libx264"}
}

// sink collects everything the recorder pipes to ffmpeg.
func sink(buf *bytes.Buffer) runner {
	return func(_ *ffmpeg.Stream, in io.Reader) error {
		_, err := io.Copy(buf, in)
		return err
	}
}

func TestArgs(t *testing.T) {
	in, out := Args(Settings{Width: 800, Height: 480, FPS: 60, Codec: "libx265"})
	assert.Equal(t, "rawvideo", in["f"])
	assert.Equal(t, "rgba", in["pix_fmt"])
	assert.Equal(t, "800x480", in["s"])
	assert.Equal(t, 60, in["framerate"])
	assert.Equal(t, "vflip", out["vf"])
	assert.Equal(t, "libx265", out["c:v"])
	assert.Equal(t, "yuv420p", out["pix_fmt"])
}

func TestRecorderWritesFrames(t *testing.T) {
	var buf bytes.Buffer
	r, err := newRecorder(settings(), sink(&buf))
	require.NoError(t, err)

	frame := bytes.Repeat([]byte{1, 2, 3, 4}, 4)
	require.NoError(t, r.WriteFrame(frame))
	require.NoError(t, r.WriteFrame(frame))
	assert.Equal(t, 2, r.Frames())
	require.NoError(t, r.Close())
	assert.Equal(t, 32, buf.Len())

	assert.NoError(t, r.Close(), "close is idempotent")
	assert.ErrorIs(t, r.WriteFrame(frame), ErrClosed)
}

func TestRecorderRejectsWrongSize(t *testing.T) {
	var buf bytes.Buffer
	r, err := newRecorder(settings(), sink(&buf))
	require.NoError(t, err)
	assert.ErrorIs(t, r.WriteFrame(make([]byte, 5)), ErrFrameSize)
	assert.Equal(t, 0, r.Frames())
	require.NoError(t, r.Close())
}

func TestRecorderFFmpegFailure(t *testing.T) {
	boom := errors.New("ffmpeg exited 1")
	r, err := newRecorder(settings(), func(*ffmpeg.Stream, io.Reader) error { return boom })
	require.NoError(t, err)

	werr := r.WriteFrame(make([]byte, 16))
	require.Error(t, werr)
	assert.ErrorIs(t, werr, boom)
	assert.ErrorIs(t, r.Close(), boom)
}

func TestNewRecorderValidates(t *testing.T) {
	run := sink(&bytes.Buffer{})
	for _, s := range []Settings{
		{Width: 2, Height: 2, FPS: 30},
		{Path: "a.mp4", Width: 0, Height: 2, FPS: 30},
		{Path: "a.mp4", Width: 2, Height: 2},
	} {
		_, err := newRecorder(s, run)
		assert.Error(t, err)
	}
	r, err := newRecorder(Settings{Path: "a.mp4", Width: 1, Height: 1, FPS: 1}, run)
	require.NoError(t, err)
	assert.Equal(t, "libx264", r.Settings().Codec)
	require.NoError(t, r.Close())
}
