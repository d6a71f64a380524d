//go:build js && wasm

package browser

import (
	"fmt"
	"sync"
	"syscall/js"

	"github.com/iselfietest/cardio-sdk/domain/ports"
)

// Compile-time interface compliance checks
var (
	_ ports.Window    = (*Window)(nil)
	_ ports.Container = (*Container)(nil)
	_ ports.Frame     = (*Frame)(nil)
)

// Window is the page the wasm module runs in.
type Window struct {
	global   js.Value
	document js.Value

	mu     sync.Mutex
	frames []*Frame
}

// NewWindow binds to the global window and document.
func NewWindow() (ports.Window, error) {
	global := js.Global()
	document := global.Get("document")
	if document.IsUndefined() || document.IsNull() {
		return nil, ErrUnavailable
	}
	return &Window{global: global, document: document}, nil
}

// Origin implements ports.Window.
func (w *Window) Origin() string {
	return w.global.Get("location").Get("origin").String()
}

// ContainerByID implements ports.Window.
func (w *Window) ContainerByID(id string) (ports.Container, bool) {
	el := w.document.Call("getElementById", id)
	if el.IsNull() || el.IsUndefined() {
		return nil, false
	}
	return &Container{el: el, window: w}, true
}

// AddMessageListener implements ports.Window.
func (w *Window) AddMessageListener(fn func(ports.MessageEvent)) func() {
	cb := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		ev := args[0]
		fn(ports.MessageEvent{
			Source: w.frameFor(ev.Get("source")),
			Origin: ev.Get("origin").String(),
			Data:   encodeData(ev.Get("data")),
		})
		return nil
	})
	w.global.Call("addEventListener", "message", cb)

	var once sync.Once
	return func() {
		once.Do(func() {
			w.global.Call("removeEventListener", "message", cb)
			cb.Release()
		})
	}
}

// frameFor maps an event source to a frame this package created. It
// returns nil for any other window, including the page's own.
func (w *Window) frameFor(source js.Value) ports.Frame {
	if source.IsNull() || source.IsUndefined() {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, f := range w.frames {
		if cw := f.el.Get("contentWindow"); !cw.IsNull() && cw.Equal(source) {
			return f
		}
	}
	return nil
}

func (w *Window) track(f *Frame) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frames = append(w.frames, f)
}

func (w *Window) untrack(f *Frame) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, tracked := range w.frames {
		if tracked == f {
			w.frames = append(w.frames[:i], w.frames[i+1:]...)
			return true
		}
	}
	return false
}

// encodeData turns a message payload into JSON bytes. Strings are passed
// through since some frames post pre-encoded JSON.
func encodeData(data js.Value) (raw []byte) {
	if data.Type() == js.TypeString {
		return []byte(data.String())
	}
	defer func() {
		if recover() != nil {
			raw = nil
		}
	}()
	s := js.Global().Get("JSON").Call("stringify", data)
	if s.Type() != js.TypeString {
		return nil
	}
	return []byte(s.String())
}

// Container is a DOM element hosting frames.
type Container struct {
	el     js.Value
	window *Window
}

// AppendFrame implements ports.Container.
func (c *Container) AppendFrame(spec ports.FrameSpec) (frame ports.Frame, err error) {
	defer func() {
		if r := recover(); r != nil {
			frame, err = nil, fmt.Errorf("browser: append frame: %v", r)
		}
	}()

	el := c.window.document.Call("createElement", "iframe")
	el.Set("id", spec.ID)
	el.Set("src", spec.Src)
	if spec.Allow != "" {
		el.Call("setAttribute", "allow", spec.Allow)
	}
	style := el.Get("style")
	for k, v := range spec.Style {
		style.Call("setProperty", k, v)
	}
	c.el.Call("appendChild", el)

	f := &Frame{el: el}
	c.window.track(f)
	return f, nil
}

// RemoveFrame implements ports.Container.
func (c *Container) RemoveFrame(frame ports.Frame) {
	f, ok := frame.(*Frame)
	if !ok || !c.window.untrack(f) {
		return
	}
	if parent := f.el.Get("parentNode"); !parent.IsNull() && !parent.IsUndefined() {
		parent.Call("removeChild", f.el)
	}
	f.release()
}

// Frame is an iframe element.
type Frame struct {
	el js.Value

	mu    sync.Mutex
	funcs []js.Func
}

// OnLoad implements ports.Frame.
func (f *Frame) OnLoad(fn func()) {
	cb := js.FuncOf(func(js.Value, []js.Value) any {
		fn()
		return nil
	})
	f.mu.Lock()
	f.funcs = append(f.funcs, cb)
	f.mu.Unlock()
	f.el.Call("addEventListener", "load", cb)
}

// PostMessage implements ports.Frame. The message is parsed so the frame
// receives an object rather than a string.
func (f *Frame) PostMessage(message []byte, targetOrigin string) (err error) {
	cw := f.el.Get("contentWindow")
	if cw.IsNull() || cw.IsUndefined() {
		return ErrFrameDetached
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("browser: post message: %v", r)
		}
	}()
	payload := js.Global().Get("JSON").Call("parse", string(message))
	cw.Call("postMessage", payload, targetOrigin)
	return nil
}

func (f *Frame) release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cb := range f.funcs {
		f.el.Call("removeEventListener", "load", cb)
		cb.Release()
	}
	f.funcs = nil
}
