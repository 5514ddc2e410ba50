package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	glfw "github.com/go-gl/glfw/v3.3/glfw"

	"github.com/richinsley/goshaderfx/encoder"
	"github.com/richinsley/goshaderfx/glfwcontext"
	"github.com/richinsley/goshaderfx/graphics"
	"github.com/richinsley/goshaderfx/options"
	"github.com/richinsley/goshaderfx/postfx"
	"github.com/richinsley/goshaderfx/renderer"
	"github.com/richinsley/goshaderfx/scene"
)

type app struct {
	ctx      graphics.Context
	renderer *renderer.Renderer
	composer *postfx.EffectComposer
	scenes   map[string]*scene.ShaderScene
	opts     *options.ShaderOptions
}

func (a *app) frame(deltaTime float32) {
	for _, s := range a.scenes {
		s.Advance(deltaTime)
	}
	a.composer.Render(deltaTime)
}

// toggleEffects enables or disables every effect pass.
func (a *app) toggleEffects() {
	for _, p := range a.composer.Passes() {
		if ep, ok := p.(*postfx.EffectPass); ok {
			ep.SetEnabled(!ep.Enabled())
		}
	}
}

// run is the interactive loop. P toggles the effect passes.
func (a *app) run() {
	if win, ok := a.ctx.(*glfwcontext.Context); ok {
		win.RegisterKeyCallback(glfw.KeyP, a.toggleEffects)
	}

	width, height := a.ctx.GetFramebufferSize()
	a.composer.SetSize(width, height)
	last := a.ctx.Time()

	for !a.ctx.ShouldClose() {
		if w, h := a.ctx.GetFramebufferSize(); w != width || h != height {
			width, height = w, h
			a.composer.SetSize(w, h)
		}
		if win, ok := a.ctx.(*glfwcontext.Context); ok {
			mouse := win.GetMouseInput()
			for _, s := range a.scenes {
				s.SetMouse(mouse)
			}
		}

		now := a.ctx.Time()
		a.frame(float32(now - last))
		last = now
		a.ctx.EndFrame()
	}
}

// runOffscreen renders at a fixed frame rate and encodes the frames. Record
// mode renders as fast as possible for the configured duration; stream
// mode paces frames in real time until interrupted.
func (a *app) runOffscreen() error {
	opts := a.opts
	width, height := a.ctx.GetFramebufferSize()
	a.composer.SetSize(width, height)

	rb, err := renderer.NewReadback(width, height, *opts.NumPBOs)
	if err != nil {
		return err
	}
	defer rb.Destroy()

	rec, err := encoder.NewRecorder(encoder.Options{
		Output:     *opts.OutputFile,
		Width:      width,
		Height:     height,
		FPS:        *opts.FPS,
		Codec:      *opts.Codec,
		FFMPEGPath: *opts.FFMPEGPath,
		HWAccel:    *opts.HWAccel,
		Stream:     *opts.Mode == options.ModeStream,
	})
	if err != nil {
		return err
	}

	render := func(deltaTime float32) error {
		a.frame(deltaTime)
		pixels, err := rb.Read(nil)
		if err != nil || pixels == nil {
			return err
		}
		return rec.WriteFrame(pixels)
	}

	if *opts.Mode == options.ModeStream {
		err = a.stream(render)
	} else {
		err = a.record(render)
	}
	if err != nil {
		rec.Close()
		return err
	}

	frames, err := rb.Flush()
	if err != nil {
		rec.Close()
		return err
	}
	for _, pixels := range frames {
		if err := rec.WriteFrame(pixels); err != nil {
			rec.Close()
			return err
		}
	}
	return rec.Close()
}

func (a *app) record(render func(float32) error) error {
	totalFrames := int(*a.opts.Duration * float64(*a.opts.FPS))
	timeStep := float32(1.0 / float64(*a.opts.FPS))
	for i := 0; i < totalFrames; i++ {
		if err := render(timeStep); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}

func (a *app) stream(render func(float32) error) error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	startTime := time.Now()
	frameDuration := time.Second / time.Duration(*a.opts.FPS)
	var frameCounter int64

	for !a.ctx.ShouldClose() {
		select {
		case <-interrupt:
			log.Println("Stream interrupted")
			return nil
		default:
		}

		shouldHaveRendered := int64(time.Since(startTime) / frameDuration)
		if frameCounter >= shouldHaveRendered {
			time.Sleep(time.Millisecond)
			continue
		}
		for frameCounter < shouldHaveRendered {
			if err := render(float32(frameDuration.Seconds())); err != nil {
				return fmt.Errorf("frame %d: %w", frameCounter, err)
			}
			frameCounter++
		}
	}
	return nil
}
