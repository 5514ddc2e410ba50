package renderer

import (
	"sync"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// refCounted creates a resource for its first user and destroys it when
// the last user releases it.
type refCounted struct {
	mu      sync.Mutex
	refs    int
	create  func() error
	destroy func()
}

func (c *refCounted) acquire() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refs == 0 {
		if err := c.create(); err != nil {
			return err
		}
	}
	c.refs++
	return nil
}

func (c *refCounted) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refs == 0 {
		return
	}
	c.refs--
	if c.refs == 0 {
		c.destroy()
	}
}

func (c *refCounted) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refs
}

// A single triangle covers the viewport without the diagonal seam of a quad.
var triangleVertices = []float32{
	-1.0, -1.0,
	3.0, -1.0,
	-1.0, 3.0,
}

type fullscreenTriangle struct {
	refCounted
	vao uint32
	vbo uint32
}

var triangle = newFullscreenTriangle()

func newFullscreenTriangle() *fullscreenTriangle {
	t := &fullscreenTriangle{}
	t.create = t.upload
	t.destroy = t.delete
	return t
}

func (t *fullscreenTriangle) upload() error {
	gl.GenVertexArrays(1, &t.vao)
	gl.GenBuffers(1, &t.vbo)
	gl.BindVertexArray(t.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, t.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(triangleVertices)*4, gl.Ptr(triangleVertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	return nil
}

func (t *fullscreenTriangle) delete() {
	gl.DeleteBuffers(1, &t.vbo)
	gl.DeleteVertexArrays(1, &t.vao)
	t.vao, t.vbo = 0, 0
}

func (t *fullscreenTriangle) draw() {
	gl.BindVertexArray(t.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
}
