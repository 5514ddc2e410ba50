package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/richinsley/goshaderfx/api"
	"github.com/richinsley/goshaderfx/glfwcontext"
	"github.com/richinsley/goshaderfx/graphics"
	"github.com/richinsley/goshaderfx/graphics/recorder"
	"github.com/richinsley/goshaderfx/headless"
	"github.com/richinsley/goshaderfx/options"
	"github.com/richinsley/goshaderfx/pipeline"
	"github.com/richinsley/goshaderfx/postfx"
	"github.com/richinsley/goshaderfx/renderer"
	"github.com/richinsley/goshaderfx/scene"
)

//go:embed default.toml
var defaultPipeline []byte

func init() {
	runtime.LockOSThread()
}

func loadPipeline(path string) (*pipeline.Config, error) {
	if path == "" {
		return pipeline.Parse(defaultPipeline)
	}
	return pipeline.Load(path)
}

// loadScene returns a built-in scene, a single pass shadertoy.com shader
// for "shadertoy:<id>", or reads a fragment shader file when name looks
// like a path.
func loadScene(label, name string) (*scene.ShaderScene, error) {
	if id, ok := strings.CutPrefix(name, "shadertoy:"); ok {
		return fetchScene(label, id)
	}
	if strings.ContainsAny(name, "./\\") {
		return scene.Load(label, name)
	}
	return scene.Builtin(name)
}

func fetchScene(label, id string) (*scene.ShaderScene, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s, err := api.NewClient().Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	src, err := s.ImageSource()
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", id, err)
	}
	log.Printf("Loaded %s for scene %q", s.Title(), label)
	return scene.New(label, src)
}

func loadScenes(opts *options.ShaderOptions) (map[string]*scene.ShaderScene, error) {
	mainScene, err := loadScene("main", *opts.Scene)
	if err != nil {
		return nil, err
	}
	maskScene, err := loadScene("mask", *opts.MaskScene)
	if err != nil {
		return nil, err
	}
	return map[string]*scene.ShaderScene{"main": mainScene, "mask": maskScene}, nil
}

func sceneMap(scenes map[string]*scene.ShaderScene) map[string]graphics.Scene {
	m := make(map[string]graphics.Scene, len(scenes))
	for name, s := range scenes {
		m[name] = s
	}
	return m
}

// printShaders builds the pipeline against a recording renderer and prints
// every generated effect program.
func printShaders(cfg *pipeline.Config, opts *options.ShaderOptions, scenes map[string]*scene.ShaderScene) error {
	r := recorder.New(*opts.Width, *opts.Height)
	composer, err := cfg.NewComposer(r, scene.DefaultCamera(), sceneMap(scenes))
	if err != nil {
		return err
	}
	defer composer.Dispose()

	for i, p := range composer.Passes() {
		ep, ok := p.(*postfx.EffectPass)
		if !ok {
			continue
		}
		for _, err := range ep.Errors() {
			fmt.Printf("// pass %d: %v\n", i, err)
		}
		m := ep.Material()
		fmt.Printf("// pass %d vertex shader\n%s\n", i, m.VertexShader())
		fmt.Printf("// pass %d fragment shader\n%s\n", i, m.FragmentShader())
	}
	return nil
}

func newContext(opts *options.ShaderOptions) (graphics.Context, error) {
	if *opts.Headless {
		return headless.NewHeadless(*opts.Width, *opts.Height)
	}
	if err := glfwcontext.InitGraphics(); err != nil {
		return nil, fmt.Errorf("failed to initialize glfw: %w", err)
	}
	ctx, err := glfwcontext.New(*opts.Width, *opts.Height, "goshaderfx", !opts.Offscreen())
	if err != nil {
		glfwcontext.TerminateGraphics()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	return ctx, nil
}

func main() {
	opts, fs, err := options.Parse(os.Args[0], os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}
	if *opts.Help {
		fmt.Println("goshaderfx: post-processing pipeline viewer and recorder")
		fs.PrintDefaults()
		return
	}

	level := slog.LevelInfo
	if *opts.Verbose {
		level = slog.LevelDebug
	}
	postfx.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := loadPipeline(*opts.Pipeline)
	if err != nil {
		log.Fatalf("Error loading pipeline: %v", err)
	}
	scenes, err := loadScenes(opts)
	if err != nil {
		log.Fatalf("Error loading scenes: %v", err)
	}

	if *opts.PrintShaders {
		if err := printShaders(cfg, opts, scenes); err != nil {
			log.Fatalf("Error building pipeline: %v", err)
		}
		return
	}

	ctx, err := newContext(opts)
	if err != nil {
		log.Fatalf("Failed to create graphics context: %v", err)
	}
	defer func() {
		ctx.Shutdown()
		if !*opts.Headless {
			glfwcontext.TerminateGraphics()
		}
	}()

	r, err := renderer.NewRenderer(ctx)
	if err != nil {
		log.Fatalf("Failed to create renderer: %v", err)
	}
	defer r.Shutdown()

	composer, err := cfg.NewComposer(r, scene.DefaultCamera(), sceneMap(scenes))
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}
	defer func() {
		composer.Dispose()
		for _, s := range scenes {
			s.Dispose()
		}
	}()

	app := &app{ctx: ctx, renderer: r, composer: composer, scenes: scenes, opts: opts}
	if opts.Offscreen() {
		log.Println("Starting offscreen render loop...")
		if err := app.runOffscreen(); err != nil {
			log.Printf("Offscreen rendering failed: %v", err)
			return
		}
		log.Printf("Successfully rendered to %s", *opts.OutputFile)
		return
	}
	log.Println("Starting interactive render loop...")
	app.run()
}
