package ports

// Window is the page the SDK is embedded in. Only the embed controller
// adds or removes message listeners.
type Window interface {
	// Origin returns the page origin, e.g. "https://shop.example.com".
	Origin() string

	// ContainerByID looks up an element to mount the frame into.
	ContainerByID(id string) (Container, bool)

	// AddMessageListener registers a page-level "message" listener and
	// returns the function that removes it. The remove function is
	// safe to call more than once.
	AddMessageListener(fn func(MessageEvent)) (remove func())
}

// Container is a DOM element that can host the test frame.
type Container interface {
	// AppendFrame creates an iframe from spec and appends it.
	AppendFrame(spec FrameSpec) (Frame, error)

	// RemoveFrame detaches the frame. Removing a frame that is no longer
	// attached is a no-op.
	RemoveFrame(f Frame)
}

// Frame is an embedded iframe element.
type Frame interface {
	// OnLoad registers fn to run on every load event of the frame.
	OnLoad(fn func())

	// PostMessage delivers a JSON message to the frame's window,
	// restricted to targetOrigin.
	PostMessage(message []byte, targetOrigin string) error
}

// FrameSpec describes the iframe element to create.
type FrameSpec struct {
	Style map[string]string
	ID    string
	Src   string
	Allow string
}

// MessageEvent is an inbound window message.
type MessageEvent struct {
	// Source is the frame that posted the message when it is one the SDK
	// created, nil otherwise.
	Source Frame
	Origin string
	Data   []byte
}
