// Package options holds the command line options of goshaderfx.
package options

import (
	"errors"
	"flag"
	"fmt"
)

// Modes.
const (
	ModeWindow = "window"
	ModeRecord = "record"
	ModeStream = "stream"
)

type ShaderOptions struct {
	Help         *bool
	Mode         *string
	Pipeline     *string // TOML pipeline file, empty for the built-in one
	Scene        *string // built-in scene name, fragment shader file or shadertoy:<id>
	MaskScene    *string
	Duration     *float64
	FPS          *int
	Width        *int
	Height       *int
	OutputFile   *string
	FFMPEGPath   *string
	Codec        *string
	HWAccel      *bool
	NumPBOs      *int
	Headless     *bool
	PrintShaders *bool // print the generated programs and exit
	Verbose      *bool
}

// Register defines every option on fs.
func Register(fs *flag.FlagSet) *ShaderOptions {
	return &ShaderOptions{
		Help:         fs.Bool("help", false, "Show help message"),
		Mode:         fs.String("mode", ModeWindow, "Run mode: window, record or stream"),
		Pipeline:     fs.String("pipeline", "", "Pipeline description (TOML)"),
		Scene:        fs.String("scene", "plasma", "Built-in scene, fragment shader file or shadertoy:<id> for the main scene"),
		MaskScene:    fs.String("mask-scene", "disc", "Built-in scene, fragment shader file or shadertoy:<id> for the mask scene"),
		Duration:     fs.Float64("duration", 10.0, "Duration to record in seconds"),
		FPS:          fs.Int("fps", 60, "Frames per second for recording"),
		Width:        fs.Int("width", 1280, "Width of the output"),
		Height:       fs.Int("height", 720, "Height of the output"),
		OutputFile:   fs.String("output", "output.mp4", "Output file name for recording"),
		FFMPEGPath:   fs.String("ffmpeg", "", "Path to ffmpeg executable"),
		Codec:        fs.String("codec", "h264", "Video codec: h264 or hevc"),
		HWAccel:      fs.Bool("hwaccel", false, "Use the platform hardware encoder"),
		NumPBOs:      fs.Int("numpbos", 3, "Number of pixel buffers used for readback"),
		Headless:     fs.Bool("headless", false, "Render through EGL without a window (Linux only)"),
		PrintShaders: fs.Bool("print-shaders", false, "Print the generated programs and exit"),
		Verbose:      fs.Bool("verbose", false, "Enable debug logging"),
	}
}

// Parse registers the options on a new flag set and parses args.
func Parse(name string, args []string) (*ShaderOptions, *flag.FlagSet, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	opts := Register(fs)
	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	if err := opts.Validate(); err != nil {
		return nil, fs, err
	}
	return opts, fs, nil
}

// Validate checks option values and combinations.
func (o *ShaderOptions) Validate() error {
	switch *o.Mode {
	case ModeWindow, ModeRecord, ModeStream:
	default:
		return fmt.Errorf("unknown mode %q", *o.Mode)
	}
	if *o.Width <= 0 || *o.Height <= 0 {
		return fmt.Errorf("invalid size %dx%d", *o.Width, *o.Height)
	}
	if *o.FPS <= 0 {
		return fmt.Errorf("invalid frame rate %d", *o.FPS)
	}
	if *o.Mode == ModeWindow && *o.Headless {
		return errors.New("headless rendering needs record or stream mode")
	}
	if *o.NumPBOs < 2 {
		return fmt.Errorf("number of PBOs must be at least 2, got %d", *o.NumPBOs)
	}
	return nil
}

// Offscreen reports whether frames are encoded instead of shown.
func (o *ShaderOptions) Offscreen() bool { return *o.Mode != ModeWindow }
