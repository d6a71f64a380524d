// Package embed mounts the cardio test frame into the host page and runs
// the init handshake with it.
package embed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/iselfietest/cardio-sdk/domain/entities"
	sdkerrors "github.com/iselfietest/cardio-sdk/domain/errors"
	"github.com/iselfietest/cardio-sdk/domain/ports"
)

const (
	// FrameID is the element id of the test frame.
	FrameID = "iselfietest-iframe"

	framePath  = "/sdk/before-cardio-test?isSDK=true"
	frameAllow = "camera; microphone"

	defaultMountAttempts     = 3
	defaultMountInterval     = time.Second
	defaultHandshakeInterval = time.Second
	defaultHandshakeTimeout  = 30 * time.Second
)

// State is the lifecycle state of the controller.
type State int

const (
	StateIdle State = iota
	StateMounting
	StateHandshakePending
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMounting:
		return "mounting"
	case StateHandshakePending:
		return "handshake_pending"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) live() bool {
	return s == StateMounting || s == StateHandshakePending || s == StateActive
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock used for retries and the handshake.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMountRetry sets how many container lookups are made and the wait
// between them.
func WithMountRetry(attempts int, interval time.Duration) Option {
	return func(c *Controller) {
		if attempts > 0 {
			c.mountAttempts = attempts
		}
		if interval >= 0 {
			c.mountInterval = interval
		}
	}
}

// WithHandshakeInterval sets how often the init message is resent until
// it is acknowledged.
func WithHandshakeInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.handshakeInterval = d
		}
	}
}

// WithHandshakeTimeout bounds the wait for an acknowledgement. Zero
// disables the bound.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.handshakeTimeout = d
		}
	}
}

// WithTrustedOrigins accepts frame messages from origins matching any of
// the doublestar patterns, e.g. "https://*.iselfietest.com".
func WithTrustedOrigins(patterns ...string) Option {
	return func(c *Controller) {
		c.trusted = append(c.trusted, patterns...)
	}
}

// Controller owns at most one embedded test session at a time.
type Controller struct {
	window ports.Window
	clock  clockwork.Clock
	logger *slog.Logger

	frameSrc    string
	frameOrigin string
	trusted     []string

	mountAttempts     int
	mountInterval     time.Duration
	handshakeInterval time.Duration
	handshakeTimeout  time.Duration

	mu    sync.Mutex
	state State
	sess  *session
}

// NewController creates a controller that embeds the test app served at
// frontendURL into window.
func NewController(window ports.Window, frontendURL string, opts ...Option) (*Controller, error) {
	u, err := url.Parse(frontendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &sdkerrors.ConfigError{Field: "frontendUrl", Err: fmt.Errorf("invalid URL %q", frontendURL)}
	}
	c := &Controller{
		window:            window,
		clock:             clockwork.NewRealClock(),
		logger:            slog.Default(),
		frameSrc:          strings.TrimRight(frontendURL, "/") + framePath,
		frameOrigin:       u.Scheme + "://" + u.Host,
		mountAttempts:     defaultMountAttempts,
		mountInterval:     defaultMountInterval,
		handshakeInterval: defaultHandshakeInterval,
		handshakeTimeout:  defaultHandshakeTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, p := range c.trusted {
		if !doublestar.ValidatePattern(p) {
			return nil, &sdkerrors.ConfigError{Field: "trustedOrigins", Err: fmt.Errorf("invalid pattern %q", p)}
		}
	}
	return c, nil
}

// FrameOrigin is the origin init messages are posted to.
func (c *Controller) FrameOrigin() string {
	return c.frameOrigin
}

// State reports the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

type result struct {
	err     error
	payload json.RawMessage
}

type session struct {
	id          string
	containerID string
	init        []byte

	// Guarded by Controller.mu.
	container      ports.Container
	frame          ports.Frame
	removeListener func()
	handshaking    bool
	tornDown       bool

	stop     chan struct{}
	stopOnce sync.Once
	torn     chan struct{}
	done     chan result
	doneOnce sync.Once
}

func (s *session) stopHandshake() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *session) settle(r result) {
	s.doneOnce.Do(func() { s.done <- r })
}

// Start mounts the test frame into the element containerID, hands it
// init, and blocks until the frame reports a result, the session is
// closed, or ctx is done.
func (c *Controller) Start(ctx context.Context, containerID string, init entities.InitMessage) (json.RawMessage, error) {
	data, err := json.Marshal(init)
	if err != nil {
		return nil, fmt.Errorf("encode init message: %w", err)
	}

	c.mu.Lock()
	if c.state.live() {
		c.mu.Unlock()
		return nil, &sdkerrors.EmbedError{Kind: sdkerrors.AlreadyInProgress, ContainerID: containerID}
	}
	sess := &session{
		id:          uuid.NewString(),
		containerID: containerID,
		init:        data,
		stop:        make(chan struct{}),
		torn:        make(chan struct{}),
		done:        make(chan result, 1),
	}
	c.sess = sess
	c.state = StateMounting
	c.mu.Unlock()

	log := c.logger.With(slog.String("session", sess.id), slog.String("container", containerID))

	container, err := c.mount(ctx, sess, log)
	if err != nil {
		return nil, err
	}
	if container == nil {
		r := <-sess.done
		return r.payload, r.err
	}

	if err := c.attach(sess, container); err != nil {
		log.Error("failed to append frame", slog.Any("error", err))
		c.teardown(sess, result{err: err})
		return nil, err
	}
	log.Debug("frame mounted", slog.String("src", c.frameSrc))

	select {
	case r := <-sess.done:
		return r.payload, r.err
	case <-ctx.Done():
		c.teardown(sess, result{err: ctx.Err()})
		return nil, ctx.Err()
	}
}

// mount looks the container up, retrying on the clock. A nil container
// with a nil error means the session was torn down while waiting.
func (c *Controller) mount(ctx context.Context, sess *session, log *slog.Logger) (ports.Container, error) {
	for attempt := 1; ; attempt++ {
		if container, ok := c.window.ContainerByID(sess.containerID); ok {
			return container, nil
		}
		if attempt >= c.mountAttempts {
			break
		}
		log.Warn(fmt.Sprintf("Retrying... (%d/%d)", attempt, c.mountAttempts))
		wait := c.clock.NewTimer(c.mountInterval)
		select {
		case <-wait.Chan():
		case <-sess.torn:
			wait.Stop()
			return nil, nil
		case <-ctx.Done():
			wait.Stop()
			c.release(sess, StateIdle)
			return nil, ctx.Err()
		}
	}

	err := &sdkerrors.EmbedError{Kind: sdkerrors.ContainerNotFound, ContainerID: sess.containerID, Attempts: c.mountAttempts}
	log.Error(err.Error())
	c.release(sess, StateIdle)
	return nil, err
}

// release drops sess without touching the page.
func (c *Controller) release(sess *session, next State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess.tornDown = true
	if c.sess == sess {
		c.sess = nil
		c.state = next
	}
}

func (c *Controller) attach(sess *session, container ports.Container) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sess.tornDown {
		return nil
	}

	frame, err := container.AppendFrame(ports.FrameSpec{
		ID:    FrameID,
		Src:   c.frameSrc,
		Allow: frameAllow,
		Style: map[string]string{"border": "none", "width": "100%", "height": "100%"},
	})
	if err != nil {
		return fmt.Errorf("append frame: %w", err)
	}
	sess.container = container
	sess.frame = frame
	sess.removeListener = c.window.AddMessageListener(func(ev ports.MessageEvent) {
		c.handleMessage(sess, ev)
	})
	frame.OnLoad(func() { c.onLoad(sess) })
	return nil
}

func (c *Controller) onLoad(sess *session) {
	c.mu.Lock()
	if sess.tornDown || c.sess != sess || sess.handshaking {
		c.mu.Unlock()
		return
	}
	sess.handshaking = true
	c.state = StateHandshakePending
	c.mu.Unlock()

	go c.handshake(sess)
}

// handshake posts the init message until the frame acknowledges it.
func (c *Controller) handshake(sess *session) {
	var timeout <-chan time.Time
	if c.handshakeTimeout > 0 {
		timer := c.clock.NewTimer(c.handshakeTimeout)
		defer timer.Stop()
		timeout = timer.Chan()
	}

	tick := c.clock.NewTimer(c.handshakeInterval)
	defer tick.Stop()

	for {
		if !c.sendInit(sess) {
			return
		}
		select {
		case <-sess.stop:
			return
		case <-timeout:
			c.logger.Error("handshake timed out", slog.String("session", sess.id), slog.Duration("timeout", c.handshakeTimeout))
			c.teardown(sess, result{err: &sdkerrors.EmbedError{Kind: sdkerrors.HandshakeTimeout, ContainerID: sess.containerID, Timeout: c.handshakeTimeout}})
			return
		case <-tick.Chan():
			tick.Reset(c.handshakeInterval)
		}
	}
}

// sendInit reports false once the handshake is over.
func (c *Controller) sendInit(sess *session) bool {
	c.mu.Lock()
	if sess.tornDown || c.sess != sess || c.state != StateHandshakePending {
		c.mu.Unlock()
		return false
	}
	frame := sess.frame
	c.mu.Unlock()

	if err := frame.PostMessage(sess.init, c.frameOrigin); err != nil {
		c.logger.Warn("failed to post init message", slog.String("session", sess.id), slog.Any("error", err))
	}
	return true
}

func (c *Controller) handleMessage(sess *session, ev ports.MessageEvent) {
	c.mu.Lock()
	frame, state, torn := sess.frame, c.state, sess.tornDown
	c.mu.Unlock()

	if torn || ev.Source == nil || ev.Source != frame || !c.originAllowed(ev.Origin) {
		return
	}
	msg, err := entities.DecodeInbound(ev.Data)
	if err != nil {
		c.logger.Debug("ignoring frame message", slog.String("session", sess.id), slog.Any("error", err))
		return
	}
	if state != StateHandshakePending && state != StateActive {
		return
	}

	switch m := msg.(type) {
	case entities.AckMessage:
		c.acknowledge(sess)
	case entities.CompleteMessage:
		c.logger.Info("cardio test completed", slog.String("session", sess.id))
		c.teardown(sess, result{payload: m.Data})
	case entities.ErrorMessage:
		c.logger.Warn("cardio test failed", slog.String("session", sess.id), slog.String("payload", string(m.Data)))
		c.teardown(sess, result{err: &sdkerrors.FrameError{Payload: m.Data}})
	case entities.CloseMessage:
		c.teardown(sess, result{err: &sdkerrors.EmbedError{Kind: sdkerrors.Closed, ContainerID: sess.containerID}})
	}
}

func (c *Controller) acknowledge(sess *session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != sess || c.state != StateHandshakePending {
		return
	}
	sess.stopHandshake()
	c.state = StateActive
	c.logger.Debug("handshake acknowledged", slog.String("session", sess.id))
}

func (c *Controller) originAllowed(origin string) bool {
	if origin == c.frameOrigin {
		return true
	}
	for _, p := range c.trusted {
		if ok, _ := doublestar.Match(p, origin); ok {
			return true
		}
	}
	return false
}

// Close tears down the current session. It is safe to call at any time.
func (c *Controller) Close() {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()

	if sess == nil {
		c.logger.Debug("No iframe to close")
		return
	}
	c.teardown(sess, result{err: &sdkerrors.EmbedError{Kind: sdkerrors.Closed, ContainerID: sess.containerID}})
}

// teardown removes everything sess added to the page and settles its
// pending Start with r. Only the first call for a session has effect.
func (c *Controller) teardown(sess *session, r result) {
	c.mu.Lock()
	if sess.tornDown {
		c.mu.Unlock()
		return
	}
	sess.tornDown = true
	close(sess.torn)
	sess.stopHandshake()
	remove, container, frame := sess.removeListener, sess.container, sess.frame
	sess.removeListener = nil
	if c.sess == sess {
		c.sess = nil
		c.state = StateClosed
	}
	c.mu.Unlock()

	if remove != nil {
		remove()
	}
	if container != nil && frame != nil {
		container.RemoveFrame(frame)
	}
	sess.settle(r)
	c.logger.Info("Iframe closed.", slog.String("session", sess.id))
}
