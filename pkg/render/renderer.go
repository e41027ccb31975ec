package render

import (
	"fmt"
	"io"
	"sync"
)

// Renderer receives what the host should display. Implementations must not
// call back into the component that renders to them.
type Renderer interface {
	// Text replaces the display with plain status text.
	Text(msg string)
	// HTML replaces the display with a sanitized HTML fragment.
	HTML(fragment string)
}

// Discard drops everything.
type Discard struct{}

func (Discard) Text(string) {}
func (Discard) HTML(string) {}

// WriterRenderer writes each render to an io.Writer, one block per call.
type WriterRenderer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterRenderer returns a Renderer writing to w.
func NewWriterRenderer(w io.Writer) *WriterRenderer {
	return &WriterRenderer{w: w}
}

func (r *WriterRenderer) Text(msg string) {
	r.write(msg)
}

func (r *WriterRenderer) HTML(fragment string) {
	r.write(fragment)
}

func (r *WriterRenderer) write(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, s)
}
