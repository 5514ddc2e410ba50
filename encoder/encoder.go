// Package encoder records rendered frames to a video file by piping raw
// RGBA frames into an ffmpeg process.
package encoder

import (
	"errors"
	"fmt"
	"io"
	"log"
	"runtime"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const numBuffers = 3

// Frame is one rendered frame, rows ordered bottom to top.
type Frame struct {
	Pixels []byte
	PTS    int64
}

// Options configures a recording.
type Options struct {
	Output     string
	Width      int
	Height     int
	FPS        int
	Codec      string // "h264" or "hevc"
	BitRate    string
	FFMPEGPath string
	// HWAccel selects the platform hardware encoder.
	HWAccel bool
	// Stream writes an MPEG-TS stream instead of a file container.
	Stream bool
}

func (o *Options) validate() error {
	if o.Output == "" {
		return errors.New("missing output")
	}
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", o.Width, o.Height)
	}
	if o.FPS <= 0 {
		return fmt.Errorf("invalid frame rate %d", o.FPS)
	}
	switch o.Codec {
	case "", "h264", "hevc":
	default:
		return fmt.Errorf("unsupported codec %q", o.Codec)
	}
	return nil
}

// FrameSize returns the size of one RGBA frame in bytes.
func (o *Options) FrameSize() int { return o.Width * o.Height * 4 }

// Args returns the ffmpeg input and output arguments for opts.
func Args(opts Options) (inputArgs ffmpeg.KwArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{
		"f":         "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"framerate": opts.FPS,
	}

	outputArgs = ffmpeg.KwArgs{
		// frames are read back bottom row first
		"vf":      "vflip",
		"pix_fmt": "yuv420p",
	}

	hevc := opts.Codec == "hevc"
	switch {
	case opts.HWAccel && runtime.GOOS == "linux":
		if hevc {
			outputArgs["c:v"] = "hevc_nvenc"
		} else {
			outputArgs["c:v"] = "h264_nvenc"
		}
		outputArgs["preset"] = "p2"
	case opts.HWAccel && runtime.GOOS == "darwin":
		if hevc {
			outputArgs["c:v"] = "hevc_videotoolbox"
		} else {
			outputArgs["c:v"] = "h264_videotoolbox"
		}
	default:
		if hevc {
			outputArgs["c:v"] = "libx265"
		} else {
			outputArgs["c:v"] = "libx264"
		}
	}

	bitRate := opts.BitRate
	if bitRate == "" {
		bitRate = "25M"
	}
	outputArgs["b:v"] = bitRate

	if hevc && strings.HasSuffix(opts.Output, ".mp4") {
		outputArgs["tag:v"] = "hvc1"
	}
	if opts.Stream {
		outputArgs["f"] = "mpegts"
	}
	return
}

// Recorder feeds frames to ffmpeg from a background goroutine.
type Recorder struct {
	opts   Options
	frames chan *Frame
	done   chan error
	pts    int64
	closed bool
}

// NewRecorder starts ffmpeg and returns a recorder writing to opts.Output.
func NewRecorder(opts Options) (*Recorder, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid recording options: %w", err)
	}

	pipeReader, pipeWriter := io.Pipe()
	inputArgs, outputArgs := Args(opts)
	ffmpegCmd := ffmpeg.Input("pipe:", inputArgs).
		Output(opts.Output, outputArgs).
		OverWriteOutput().WithInput(pipeReader).ErrorToStdOut()
	if opts.FFMPEGPath != "" {
		ffmpegCmd = ffmpegCmd.SetFfmpegPath(opts.FFMPEGPath)
	}

	log.Printf("Recording %dx%d at %d fps to %s", opts.Width, opts.Height, opts.FPS, opts.Output)
	return start(opts, pipeWriter, func() error {
		err := ffmpegCmd.Run()
		// unblock pending writes if ffmpeg exits early
		pipeReader.CloseWithError(errors.New("ffmpeg exited"))
		return err
	}), nil
}

func start(opts Options, w io.WriteCloser, run func() error) *Recorder {
	r := &Recorder{
		opts:   opts,
		frames: make(chan *Frame, numBuffers),
		done:   make(chan error, 1),
	}
	errc := make(chan error, 1)
	go func() {
		errc <- run()
	}()
	go r.runEncoder(w, errc)
	return r
}

// runEncoder is the consumer. After a write error it keeps draining frames
// so that producers never block.
func (r *Recorder) runEncoder(w io.WriteCloser, errc <-chan error) {
	var writeErr error
	for frame := range r.frames {
		if writeErr != nil {
			continue
		}
		if _, err := w.Write(frame.Pixels); err != nil {
			writeErr = fmt.Errorf("failed to write frame %d: %w", frame.PTS, err)
			log.Printf("Error writing frame %d: %v", frame.PTS, err)
		}
	}
	w.Close()
	runErr := <-errc
	if runErr != nil {
		runErr = fmt.Errorf("ffmpeg failed: %w", runErr)
	}
	r.done <- errors.Join(writeErr, runErr)
}

// WriteFrame queues one frame. pixels must hold exactly one RGBA frame and
// must not be modified afterwards.
func (r *Recorder) WriteFrame(pixels []byte) error {
	if r.closed {
		return errors.New("recorder is closed")
	}
	if len(pixels) != r.opts.FrameSize() {
		return fmt.Errorf("frame has %d bytes, expected %d", len(pixels), r.opts.FrameSize())
	}
	r.frames <- &Frame{Pixels: pixels, PTS: r.pts}
	r.pts++
	return nil
}

// Frames returns the number of frames queued so far.
func (r *Recorder) Frames() int64 { return r.pts }

// Close flushes the queued frames and waits for ffmpeg to finish.
func (r *Recorder) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	close(r.frames)
	return <-r.done
}
