//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"syscall/js"

	"github.com/iselfietest/cardio-sdk/application/config"
	"github.com/iselfietest/cardio-sdk/application/sdk"
	sdkerrors "github.com/iselfietest/cardio-sdk/domain/errors"
	"github.com/iselfietest/cardio-sdk/domain/ports"
)

// Global names installed on window.
const (
	globalInit         = "ISelfieTest"
	globalInitAlias    = "ISelfieCardioSDK"
	globalStart        = "startCardioTest"
	globalClose        = "closeTest"
	globalAvailability = "getAvailability"
)

type bindings struct {
	guard  *sdk.Guard
	window ports.Window
	logger *slog.Logger

	start js.Func
	close js.Func
}

func (b *bindings) install(global js.Value) {
	b.start = js.FuncOf(b.startCardioTest)
	b.close = js.FuncOf(b.closeTest)

	initFn := js.FuncOf(b.initialize)
	global.Set(globalInit, initFn)
	global.Set(globalInitAlias, initFn)
	global.Set(globalStart, b.start)
	global.Set(globalClose, b.close)
	global.Set(globalAvailability, js.FuncOf(b.getAvailability))
}

// initialize backs new ISelfieTest(config). The returned promise always
// resolves; failures are reported through success and code.
func (b *bindings) initialize(_ js.Value, args []js.Value) any {
	var raw js.Value
	if len(args) > 0 {
		raw = args[0]
	}
	return promise(func() (any, error) {
		m, err := configMap(raw)
		if err != nil {
			return nil, err
		}
		res := b.guard.InitMap(context.Background(), m, sdk.WithWindow(b.window), sdk.WithLogger(b.logger))
		return b.resultObject(res), nil
	})
}

func (b *bindings) startCardioTest(js.Value, []js.Value) any {
	return promise(func() (any, error) {
		payload, err := b.guard.StartCardioTest(context.Background())
		if err != nil {
			return nil, err
		}
		return parseJSON(payload), nil
	})
}

func (b *bindings) closeTest(js.Value, []js.Value) any {
	return promise(func() (any, error) {
		return js.Undefined(), b.guard.CloseTest()
	})
}

func (b *bindings) getAvailability(js.Value, []js.Value) any {
	return promise(func() (any, error) {
		verdict, err := b.guard.GetAvailability(context.Background())
		if err != nil {
			return nil, err
		}
		return toJS(verdict), nil
	})
}

func (b *bindings) resultObject(res *sdk.InitResult) js.Value {
	obj := toJS(res)
	obj.Set("isAvailable", res.Availability.Allowed)
	obj.Set("startCardioTest", b.start)
	obj.Set("closeTest", b.close)
	return obj
}

// configMap converts the host's config object to a config.Map. A missing
// or non-object argument yields an empty map so validation reports the
// missing credentials.
func configMap(v js.Value) (config.Map, error) {
	m := config.Map{}
	if v.IsUndefined() || v.IsNull() || v.Type() != js.TypeObject {
		return m, nil
	}
	raw := js.Global().Get("JSON").Call("stringify", v).String()
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, &sdkerrors.ConfigError{Err: err}
	}
	return m, nil
}

func toJS(v any) js.Value {
	raw, err := json.Marshal(v)
	if err != nil {
		return js.Null()
	}
	return parseJSON(raw)
}

func parseJSON(raw []byte) js.Value {
	if len(raw) == 0 {
		return js.Null()
	}
	return js.Global().Get("JSON").Call("parse", string(raw))
}

// errorObject is the rejection value: {message, code, data?}.
func errorObject(err error) js.Value {
	detail := sdkerrors.ToErrorDetail(err)
	obj := js.Global().Get("Error").New(detail.Message)
	obj.Set("code", string(detail.Code))
	if len(detail.Data) > 0 {
		obj.Set("data", parseJSON(detail.Data))
	}
	return obj
}

// promise runs fn on its own goroutine so blocking network and timer
// calls never run on the JS event loop.
func promise(fn func() (any, error)) js.Value {
	var executor js.Func
	executor = js.FuncOf(func(_ js.Value, args []js.Value) any {
		resolve, reject := args[0], args[1]
		go func() {
			defer executor.Release()
			defer func() {
				if r := recover(); r != nil {
					reject.Invoke(errorObject(fmt.Errorf("panic: %v", r)))
				}
			}()
			v, err := fn()
			if err != nil {
				reject.Invoke(errorObject(err))
				return
			}
			resolve.Invoke(v)
		}()
		return nil
	})
	return js.Global().Get("Promise").New(executor)
}
