package renderer

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"github.com/richinsley/goshaderfx/graphics"
)

// Readback copies RGBA8 frames out of a framebuffer through a ring of pixel
// buffer objects, so the transfer of one frame overlaps the rendering of
// the following ones. Frames come out len(ring)-1 reads late.
type Readback struct {
	pbos    []uint32
	index   int
	pending int
	width   int
	height  int
}

// NewReadback allocates numPBOs pixel buffers for frames of the given size.
func NewReadback(width, height, numPBOs int) (*Readback, error) {
	if numPBOs < 2 {
		return nil, fmt.Errorf("number of PBOs must be at least 2")
	}
	rb := &Readback{
		pbos:   make([]uint32, numPBOs),
		width:  width,
		height: height,
	}
	gl.GenBuffers(int32(numPBOs), &rb.pbos[0])
	for _, pbo := range rb.pbos {
		gl.BindBuffer(gl.PIXEL_PACK_BUFFER, pbo)
		gl.BufferData(gl.PIXEL_PACK_BUFFER, rb.FrameSize(), nil, gl.STREAM_READ)
	}
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
	return rb, nil
}

// FrameSize returns the size of one frame in bytes.
func (rb *Readback) FrameSize() int { return rb.width * rb.height * 4 }

// Read queues a copy of target, or of the default framebuffer when target
// is nil, and returns the oldest queued frame once the ring is full.
// Rows are ordered bottom to top.
func (rb *Readback) Read(target graphics.RenderTarget) ([]byte, error) {
	fbo := uint32(0)
	if t, ok := target.(*Target); ok && t != nil {
		if t.width != rb.width || t.height != rb.height {
			return nil, fmt.Errorf("target is %dx%d, readback expects %dx%d", t.width, t.height, rb.width, rb.height)
		}
		fbo = t.fbo
	}

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fbo)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, rb.pbos[rb.index])
	gl.ReadPixels(0, 0, int32(rb.width), int32(rb.height), gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)

	rb.index = (rb.index + 1) % len(rb.pbos)
	rb.pending++
	if rb.pending < len(rb.pbos) {
		return nil, nil
	}
	return rb.take()
}

// Flush returns every frame still queued, oldest first.
func (rb *Readback) Flush() ([][]byte, error) {
	var frames [][]byte
	for rb.pending > 0 {
		frame, err := rb.take()
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

func (rb *Readback) take() ([]byte, error) {
	n := len(rb.pbos)
	oldest := (rb.index - rb.pending + n) % n
	size := rb.FrameSize()

	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, rb.pbos[oldest])
	defer gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
	ptr := gl.MapBufferRange(gl.PIXEL_PACK_BUFFER, 0, size, gl.MAP_READ_BIT)
	if ptr == nil {
		return nil, fmt.Errorf("failed to map PBO %d", oldest)
	}
	frame := make([]byte, size)
	copy(frame, unsafe.Slice((*byte)(ptr), size))
	gl.UnmapBuffer(gl.PIXEL_PACK_BUFFER)

	rb.pending--
	return frame, nil
}

// Destroy deletes the pixel buffers.
func (rb *Readback) Destroy() {
	gl.DeleteBuffers(int32(len(rb.pbos)), &rb.pbos[0])
}
