package embed_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iselfietest/cardio-sdk/application/embed"
	"github.com/iselfietest/cardio-sdk/domain/entities"
	sdkerrors "github.com/iselfietest/cardio-sdk/domain/errors"
	sdktest "github.com/iselfietest/cardio-sdk/testing"
)

const (
	pageOrigin  = "https://shop.example.com"
	frontendURL = "https://app.iselfietest.com"
	containerID = "iselfietest"
	waitFor     = time.Second
	tick        = 5 * time.Millisecond
)

type startResult struct {
	err     error
	payload json.RawMessage
}

type fixture struct {
	window     *sdktest.Window
	container  *sdktest.Container
	clock      *clockwork.FakeClock
	controller *embed.Controller
}

func newFixture(t *testing.T, opts ...embed.Option) *fixture {
	t.Helper()
	f := &fixture{
		window: sdktest.NewWindow(pageOrigin),
		clock:  clockwork.NewFakeClock(),
	}
	f.container = f.window.AddContainer(containerID)

	c, err := embed.NewController(f.window, frontendURL, append([]embed.Option{embed.WithClock(f.clock)}, opts...)...)
	require.NoError(t, err)
	f.controller = c
	return f
}

func initMessage() entities.InitMessage {
	return entities.NewInitMessage(entities.InitPayload{
		Options:   entities.DefaultOptions(),
		APIKey:    "key-123",
		AppUserID: "user-1",
		Domain:    pageOrigin,
	})
}

func (f *fixture) start(ctx context.Context) <-chan startResult {
	out := make(chan startResult, 1)
	go func() {
		payload, err := f.controller.Start(ctx, containerID, initMessage())
		out <- startResult{payload: payload, err: err}
	}()
	return out
}

func (f *fixture) mountedFrame(t *testing.T) *sdktest.Frame {
	t.Helper()
	require.Eventually(t, func() bool { return f.container.Frame() != nil }, waitFor, tick)
	return f.container.Frame()
}

// loaded mounts the frame, fires its load event and waits for the first
// init message.
func (f *fixture) loaded(t *testing.T) *sdktest.Frame {
	t.Helper()
	frame := f.mountedFrame(t)
	frame.Load()
	require.Eventually(t, func() bool { return frame.PostedCount() == 1 }, waitFor, tick)
	return frame
}

func await(t *testing.T, ch <-chan startResult) startResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(waitFor):
		t.Fatal("Start did not return")
		return startResult{}
	}
}

func (f *fixture) assertTornDown(t *testing.T) {
	t.Helper()
	assert.Empty(t, f.container.Frames())
	assert.Zero(t, f.window.ListenerCount())
}

func TestController_MountGivesUpAfterThreeAttempts(t *testing.T) {
	f := newFixture(t)
	f.window.RemoveContainer(containerID)

	done := f.start(context.Background())
	for lookups := 1; lookups < 3; lookups++ {
		f.clock.BlockUntil(1)
		assert.Equal(t, lookups, f.window.Lookups())
		f.clock.Advance(time.Second - time.Millisecond)
		assert.Equal(t, lookups, f.window.Lookups(), "retry fired before the interval elapsed")
		f.clock.Advance(time.Millisecond)
	}

	r := await(t, done)
	require.ErrorIs(t, r.err, sdkerrors.ErrContainerNotFound)
	assert.Equal(t, entities.CodeContainerNotFound, sdkerrors.CodeOf(r.err))
	assert.Contains(t, r.err.Error(), `"iselfietest" not found after 3 attempts`)
	assert.Equal(t, 3, f.window.Lookups())
	assert.Equal(t, embed.StateIdle, f.controller.State())
	assert.Zero(t, f.window.ListenerCount())
}

func TestController_MountRetrySucceeds(t *testing.T) {
	f := newFixture(t)
	f.window.RemoveContainer(containerID)
	f.window.OnLookup(func(id string, n int) {
		if n == 1 {
			f.window.AddContainer(id)
		}
	})

	done := f.start(context.Background())
	f.clock.BlockUntil(1)
	f.clock.Advance(time.Second)

	require.Eventually(t, func() bool {
		c := f.window.Container(containerID)
		return c != nil && c.Frame() != nil
	}, waitFor, tick)
	frame := f.window.Container(containerID).Frame()
	assert.Equal(t, 2, f.window.Lookups())
	assert.Equal(t, embed.StateMounting, f.controller.State())

	f.controller.Close()
	assert.ErrorIs(t, await(t, done).err, sdkerrors.ErrClosed)
	assert.Zero(t, frame.PostedCount())
}

func TestController_FrameSpec(t *testing.T) {
	f := newFixture(t)
	done := f.start(context.Background())

	spec := f.mountedFrame(t).Spec()
	assert.Equal(t, "iselfietest-iframe", spec.ID)
	assert.Equal(t, "https://app.iselfietest.com/sdk/before-cardio-test?isSDK=true", spec.Src)
	assert.Equal(t, "camera; microphone", spec.Allow)
	assert.Equal(t, map[string]string{"border": "none", "width": "100%", "height": "100%"}, spec.Style)
	assert.Equal(t, 1, f.window.ListenerCount())

	f.controller.Close()
	await(t, done)
}

func TestController_HandshakeAndComplete(t *testing.T) {
	f := newFixture(t)
	done := f.start(context.Background())

	frame := f.loaded(t)
	assert.Equal(t, embed.StateHandshakePending, f.controller.State())

	posted := frame.Posted()[0]
	assert.Equal(t, frontendURL, posted.TargetOrigin)
	var sent entities.InitMessage
	require.NoError(t, json.Unmarshal(posted.Data, &sent))
	assert.Equal(t, entities.MessageInit, sent.Type)
	assert.Equal(t, "user-1", sent.Data.AppUserID)

	f.clock.BlockUntil(2)
	f.clock.Advance(time.Second)
	require.Eventually(t, func() bool { return frame.PostedCount() == 2 }, waitFor, tick)

	frame.Send(entities.MessageAck, nil)
	require.Eventually(t, func() bool { return f.controller.State() == embed.StateActive }, waitFor, tick)

	f.clock.BlockUntil(0)
	f.clock.Advance(10 * time.Second)
	assert.Equal(t, 2, frame.PostedCount(), "no init messages after ack")

	frame.Send(entities.MessageComplete, map[string]int{"score": 42})

	r := await(t, done)
	require.NoError(t, r.err)
	assert.JSONEq(t, `{"score":42}`, string(r.payload))
	assert.Equal(t, embed.StateClosed, f.controller.State())
	f.assertTornDown(t)
}

func TestController_CompleteWithoutAck(t *testing.T) {
	f := newFixture(t)
	done := f.start(context.Background())

	frame := f.loaded(t)
	frame.Send(entities.MessageComplete, map[string]string{"result": "ok"})

	r := await(t, done)
	require.NoError(t, r.err)
	assert.JSONEq(t, `{"result":"ok"}`, string(r.payload))
}

func TestController_FrameError(t *testing.T) {
	f := newFixture(t)
	done := f.start(context.Background())

	frame := f.loaded(t)
	frame.Send(entities.MessageAck, nil)
	frame.Send(entities.MessageError, map[string]string{"reason": "camera_denied"})

	r := await(t, done)
	var ferr *sdkerrors.FrameError
	require.ErrorAs(t, r.err, &ferr)
	assert.JSONEq(t, `{"reason":"camera_denied"}`, string(ferr.Payload))
	assert.Equal(t, entities.CodeFrameError, sdkerrors.CodeOf(r.err))
	f.assertTornDown(t)
}

func TestController_CloseMessage(t *testing.T) {
	f := newFixture(t)
	done := f.start(context.Background())

	frame := f.loaded(t)
	frame.Send(entities.MessageClose, nil)

	r := await(t, done)
	assert.ErrorIs(t, r.err, sdkerrors.ErrClosed)
	assert.Equal(t, entities.CodeTestClosed, sdkerrors.CodeOf(r.err))
	f.assertTornDown(t)
}

func TestController_SecondLoadDoesNotRestartHandshake(t *testing.T) {
	f := newFixture(t)
	done := f.start(context.Background())

	frame := f.loaded(t)
	frame.Load()

	f.clock.BlockUntil(2)
	f.clock.Advance(time.Second)
	require.Eventually(t, func() bool { return frame.PostedCount() == 2 }, waitFor, tick)
	assert.Never(t, func() bool { return frame.PostedCount() > 2 }, 50*time.Millisecond, tick)

	f.controller.Close()
	await(t, done)
}

func TestController_HandshakeTimeout(t *testing.T) {
	f := newFixture(t, embed.WithHandshakeTimeout(2*time.Second))
	done := f.start(context.Background())

	f.loaded(t)
	f.clock.BlockUntil(2)
	f.clock.Advance(time.Second)
	f.clock.BlockUntil(2)
	f.clock.Advance(time.Second)

	r := await(t, done)
	require.ErrorIs(t, r.err, sdkerrors.ErrHandshakeTimeout)
	detail := sdkerrors.ToErrorDetail(r.err)
	assert.True(t, detail.IsTimeout)
	assert.Equal(t, entities.CodeHandshakeTimeout, detail.Code)
	assert.Equal(t, embed.StateClosed, f.controller.State())
	f.assertTornDown(t)
}

func TestController_HandshakeTimeoutDisabled(t *testing.T) {
	f := newFixture(t, embed.WithHandshakeTimeout(0))
	done := f.start(context.Background())

	frame := f.loaded(t)
	for i := 2; i <= 5; i++ {
		f.clock.BlockUntil(1)
		f.clock.Advance(time.Minute)
		n := i
		require.Eventually(t, func() bool { return frame.PostedCount() == n }, waitFor, tick)
	}
	assert.Equal(t, embed.StateHandshakePending, f.controller.State())

	f.controller.Close()
	await(t, done)
}

func TestController_AlreadyInProgress(t *testing.T) {
	f := newFixture(t)
	done := f.start(context.Background())
	f.mountedFrame(t)

	_, err := f.controller.Start(context.Background(), containerID, initMessage())

	require.ErrorIs(t, err, sdkerrors.ErrAlreadyInProgress)
	assert.Equal(t, entities.CodeAlreadyInProgress, sdkerrors.CodeOf(err))
	assert.Len(t, f.container.Frames(), 1)
	assert.Equal(t, 1, f.window.ListenerCount())

	f.controller.Close()
	assert.ErrorIs(t, await(t, done).err, sdkerrors.ErrClosed)
}

func TestController_CloseWithoutSession(t *testing.T) {
	f := newFixture(t)

	f.controller.Close()
	f.controller.Close()

	assert.Equal(t, embed.StateIdle, f.controller.State())
	assert.Zero(t, f.window.Lookups())
}

func TestController_CloseIsIdempotent(t *testing.T) {
	f := newFixture(t)
	done := f.start(context.Background())
	f.loaded(t)

	f.controller.Close()
	f.controller.Close()

	assert.ErrorIs(t, await(t, done).err, sdkerrors.ErrClosed)
	assert.Equal(t, embed.StateClosed, f.controller.State())
	f.assertTornDown(t)
}

func TestController_CloseWhileMounting(t *testing.T) {
	f := newFixture(t)
	f.window.RemoveContainer(containerID)

	done := f.start(context.Background())
	f.clock.BlockUntil(1)
	f.controller.Close()

	assert.ErrorIs(t, await(t, done).err, sdkerrors.ErrClosed)
	assert.Equal(t, 1, f.window.Lookups())
	assert.Equal(t, embed.StateClosed, f.controller.State())
}

func TestController_ContextCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := f.start(ctx)
	f.loaded(t)

	cancel()

	assert.ErrorIs(t, await(t, done).err, context.Canceled)
	f.assertTornDown(t)
}

func TestController_RestartAfterClose(t *testing.T) {
	f := newFixture(t)
	done := f.start(context.Background())
	f.loaded(t).Send(entities.MessageClose, nil)
	await(t, done)

	done = f.start(context.Background())
	frame := f.loaded(t)
	frame.Send(entities.MessageComplete, map[string]bool{"ok": true})

	r := await(t, done)
	require.NoError(t, r.err)
	assert.JSONEq(t, `{"ok":true}`, string(r.payload))
}

func TestController_IgnoresForeignMessages(t *testing.T) {
	f := newFixture(t)
	done := f.start(context.Background())
	frame := f.loaded(t)

	complete := []byte(`{"type":"iselfietest-complete","data":{"score":1}}`)

	// wrong origin
	frame.SendRaw("https://evil.example.com", complete)
	// a frame the controller did not create
	other := f.window.AddContainer("other")
	stray, err := other.AppendFrame(frame.Spec())
	require.NoError(t, err)
	stray.(*sdktest.Frame).SendRaw(frontendURL, complete)
	// garbage and unknown types
	frame.SendRaw(frontendURL, []byte(`not json`))
	frame.SendRaw(frontendURL, []byte(`{"type":"something-else"}`))
	frame.SendRaw(frontendURL, []byte(`"iselfietest-complete"`))

	select {
	case r := <-done:
		t.Fatalf("Start returned early: %+v", r)
	case <-time.After(20 * time.Millisecond):
	}
	assert.Equal(t, embed.StateHandshakePending, f.controller.State())

	frame.SendRaw(frontendURL, complete)
	r := await(t, done)
	require.NoError(t, r.err)
	assert.JSONEq(t, `{"score":1}`, string(r.payload))
}

func TestController_TrustedOrigins(t *testing.T) {
	f := newFixture(t, embed.WithTrustedOrigins("https://*.iselfietest.com"))
	done := f.start(context.Background())
	frame := f.loaded(t)

	frame.SendRaw("https://cdn.iselfietest.com", []byte(`{"type":"iselfietest-complete","data":null}`))

	r := await(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, "null", string(r.payload))
}

func TestNewController_Validation(t *testing.T) {
	window := sdktest.NewWindow(pageOrigin)

	_, err := embed.NewController(window, "not a url")
	assert.Equal(t, entities.CodeConfigInvalid, sdkerrors.CodeOf(err))

	_, err = embed.NewController(window, frontendURL, embed.WithTrustedOrigins("https://[.example.com"))
	var cerr *sdkerrors.ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "trustedOrigins", cerr.Field)

	c, err := embed.NewController(window, frontendURL+"/")
	require.NoError(t, err)
	assert.Equal(t, frontendURL, c.FrameOrigin())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", embed.StateIdle.String())
	assert.Equal(t, "handshake_pending", embed.StateHandshakePending.String())
	assert.Equal(t, "closed", embed.StateClosed.String())
}
