package sdktest

import (
	"encoding/json"
	"errors"
	"net/url"
	"sync"

	"github.com/iselfietest/cardio-sdk/domain/entities"
	"github.com/iselfietest/cardio-sdk/domain/ports"
)

// Compile-time interface compliance checks
var (
	_ ports.Window    = (*Window)(nil)
	_ ports.Container = (*Container)(nil)
	_ ports.Frame     = (*Frame)(nil)
)

// Window is an in-memory page. Listeners run synchronously on the
// goroutine that dispatches the message.
type Window struct {
	mu         sync.Mutex
	origin     string
	containers map[string]*Container
	listeners  map[int]func(ports.MessageEvent)
	nextID     int
	lookups    int
	onLookup   func(id string, n int)
}

// NewWindow returns an empty page served from origin.
func NewWindow(origin string) *Window {
	return &Window{
		origin:     origin,
		containers: make(map[string]*Container),
		listeners:  make(map[int]func(ports.MessageEvent)),
	}
}

// Origin implements ports.Window.
func (w *Window) Origin() string {
	return w.origin
}

// AddContainer adds an element with id to the page and returns it.
func (w *Window) AddContainer(id string) *Container {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := &Container{id: id, window: w}
	w.containers[id] = c
	return c
}

// Container returns the element with id, or nil.
func (w *Window) Container(id string) *Container {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.containers[id]
}

// RemoveContainer removes the element with id from the page.
func (w *Window) RemoveContainer(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.containers, id)
}

// OnLookup registers fn to run after every ContainerByID call with the
// requested id and the running lookup count. Tests use it to add a
// container between mount attempts.
func (w *Window) OnLookup(fn func(id string, n int)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onLookup = fn
}

// ContainerByID implements ports.Window.
func (w *Window) ContainerByID(id string) (ports.Container, bool) {
	w.mu.Lock()
	w.lookups++
	n := w.lookups
	c, ok := w.containers[id]
	hook := w.onLookup
	w.mu.Unlock()

	if hook != nil {
		hook(id, n)
	}
	if !ok {
		return nil, false
	}
	return c, true
}

// Lookups returns how many times ContainerByID was called.
func (w *Window) Lookups() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lookups
}

// AddMessageListener implements ports.Window.
func (w *Window) AddMessageListener(fn func(ports.MessageEvent)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextID
	w.nextID++
	w.listeners[id] = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.listeners, id)
	}
}

// ListenerCount returns the number of registered message listeners.
func (w *Window) ListenerCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.listeners)
}

// Dispatch delivers ev to every registered listener.
func (w *Window) Dispatch(ev ports.MessageEvent) {
	w.mu.Lock()
	fns := make([]func(ports.MessageEvent), 0, len(w.listeners))
	for _, fn := range w.listeners {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Container is an element of a Window.
type Container struct {
	mu     sync.Mutex
	id     string
	window *Window
	frames []*Frame
	err    error
}

// FailAppend makes the next AppendFrame calls return err.
func (c *Container) FailAppend(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// AppendFrame implements ports.Container.
func (c *Container) AppendFrame(spec ports.FrameSpec) (ports.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	f := &Frame{spec: spec, window: c.window, origin: originOf(spec.Src)}
	c.frames = append(c.frames, f)
	return f, nil
}

// RemoveFrame implements ports.Container.
func (c *Container) RemoveFrame(frame ports.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, f := range c.frames {
		if ports.Frame(f) == frame {
			c.frames = append(c.frames[:i], c.frames[i+1:]...)
			return
		}
	}
}

// Frames returns the frames currently attached.
func (c *Container) Frames() []*Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Frame(nil), c.frames...)
}

// Frame returns the single attached frame, or nil.
func (c *Container) Frame() *Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) != 1 {
		return nil
	}
	return c.frames[0]
}

// PostedMessage is a message the host posted into a frame.
type PostedMessage struct {
	Data         []byte
	TargetOrigin string
}

// Frame is an iframe of a Container.
type Frame struct {
	mu     sync.Mutex
	spec   ports.FrameSpec
	window *Window
	origin string
	onLoad []func()
	posted []PostedMessage
	onPost func(PostedMessage)
}

// ErrDetached is returned when posting to a frame whose window is gone.
var ErrDetached = errors.New("frame detached")

// Spec returns the spec the frame was created from.
func (f *Frame) Spec() ports.FrameSpec {
	return f.spec
}

// Origin returns the origin of the frame's src.
func (f *Frame) Origin() string {
	return f.origin
}

// OnLoad implements ports.Frame.
func (f *Frame) OnLoad(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onLoad = append(f.onLoad, fn)
}

// OnPost registers fn to run after each posted message.
func (f *Frame) OnPost(fn func(PostedMessage)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onPost = fn
}

// PostMessage implements ports.Frame.
func (f *Frame) PostMessage(message []byte, targetOrigin string) error {
	msg := PostedMessage{Data: append([]byte(nil), message...), TargetOrigin: targetOrigin}
	f.mu.Lock()
	f.posted = append(f.posted, msg)
	hook := f.onPost
	f.mu.Unlock()

	if hook != nil {
		hook(msg)
	}
	return nil
}

// Load fires the frame's load event.
func (f *Frame) Load() {
	f.mu.Lock()
	fns := append([]func(){}, f.onLoad...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Posted returns the messages posted into the frame so far.
func (f *Frame) Posted() []PostedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]PostedMessage(nil), f.posted...)
}

// PostedCount returns the number of posted messages.
func (f *Frame) PostedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posted)
}

// Send posts a protocol message from the frame to the page. A nil data
// omits the data field.
func (f *Frame) Send(msgType entities.MessageType, data any) {
	envelope := map[string]any{"type": msgType}
	if data != nil {
		envelope["data"] = data
	}
	raw, _ := json.Marshal(envelope)
	f.SendRaw(f.origin, raw)
}

// SendRaw posts raw bytes from the frame to the page with the given origin.
func (f *Frame) SendRaw(origin string, raw []byte) {
	f.window.Dispatch(ports.MessageEvent{Source: f, Origin: origin, Data: raw})
}

func originOf(src string) string {
	u, err := url.Parse(src)
	if err != nil || u.Scheme == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
