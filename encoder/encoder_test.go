package encoder

import (
	"bytes"
	"errors"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sink struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	err    error
	closed bool
}

func (s *sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	return s.buf.Write(p)
}

func (s *sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func testOptions() Options {
	return Options{Output: "out.mp4", Width: 2, Height: 1, FPS: 30}
}

func TestRecorderWritesFramesInOrder(t *testing.T) {
	s := &sink{}
	r := start(testOptions(), s, func() error { return nil })

	for i := byte(0); i < 5; i++ {
		require.NoError(t, r.WriteFrame(bytes.Repeat([]byte{i}, 8)))
	}
	assert.Equal(t, int64(5), r.Frames())
	require.NoError(t, r.Close())

	assert.True(t, s.closed)
	data := s.buf.Bytes()
	require.Len(t, data, 40)
	for i := 0; i < 5; i++ {
		assert.Equal(t, bytes.Repeat([]byte{byte(i)}, 8), data[i*8:(i+1)*8])
	}

	assert.NoError(t, r.Close())
	assert.Error(t, r.WriteFrame(make([]byte, 8)))
}

func TestRecorderRejectsWrongFrameSize(t *testing.T) {
	r := start(testOptions(), &sink{}, func() error { return nil })
	err := r.WriteFrame(make([]byte, 7))
	assert.ErrorContains(t, err, "frame has 7 bytes, expected 8")
	assert.Equal(t, int64(0), r.Frames())
	require.NoError(t, r.Close())
}

func TestRecorderReportsErrors(t *testing.T) {
	broken := errors.New("broken pipe")
	exited := errors.New("exit status 1")
	r := start(testOptions(), &sink{err: broken}, func() error { return exited })

	for i := 0; i < 10; i++ {
		require.NoError(t, r.WriteFrame(make([]byte, 8)))
	}
	err := r.Close()
	assert.ErrorIs(t, err, broken)
	assert.ErrorIs(t, err, exited)
	assert.ErrorContains(t, err, "failed to write frame 0")
}

func TestArgs(t *testing.T) {
	in, out := Args(Options{Output: "clip.mp4", Width: 1280, Height: 720, FPS: 60, Codec: "hevc"})
	assert.Equal(t, "rawvideo", in["f"])
	assert.Equal(t, "rgba", in["pix_fmt"])
	assert.Equal(t, "1280x720", in["s"])
	assert.Equal(t, 60, in["framerate"])

	assert.Equal(t, "vflip", out["vf"])
	assert.Equal(t, "libx265", out["c:v"])
	assert.Equal(t, "25M", out["b:v"])
	assert.Equal(t, "hvc1", out["tag:v"])
	assert.NotContains(t, out, "f")

	_, out = Args(Options{Output: "udp://127.0.0.1:1234", Width: 16, Height: 16, FPS: 30, BitRate: "4M", Stream: true})
	assert.Equal(t, "libx264", out["c:v"])
	assert.Equal(t, "4M", out["b:v"])
	assert.Equal(t, "mpegts", out["f"])
	assert.NotContains(t, out, "tag:v")
}

func TestArgsHardwareEncoder(t *testing.T) {
	_, out := Args(Options{Output: "clip.mp4", Width: 16, Height: 16, FPS: 30, HWAccel: true})
	switch runtime.GOOS {
	case "linux":
		assert.Equal(t, "h264_nvenc", out["c:v"])
	case "darwin":
		assert.Equal(t, "h264_videotoolbox", out["c:v"])
	default:
		assert.Equal(t, "libx264", out["c:v"])
	}
}

func TestValidateOptions(t *testing.T) {
	_, err := NewRecorder(Options{Width: 16, Height: 16, FPS: 30})
	assert.ErrorContains(t, err, "missing output")
	_, err = NewRecorder(Options{Output: "a.mp4", Width: 0, Height: 16, FPS: 30})
	assert.ErrorContains(t, err, "invalid frame size")
	_, err = NewRecorder(Options{Output: "a.mp4", Width: 16, Height: 16})
	assert.ErrorContains(t, err, "invalid frame rate")
	_, err = NewRecorder(Options{Output: "a.mp4", Width: 16, Height: 16, FPS: 30, Codec: "vp9"})
	assert.ErrorContains(t, err, `unsupported codec "vp9"`)
}
