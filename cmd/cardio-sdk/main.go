//go:build js && wasm

// Command cardio-sdk is the browser build of the SDK. It installs the
// host-facing globals on window and then parks forever.
package main

import (
	"log/slog"
	"syscall/js"

	"github.com/iselfietest/cardio-sdk/application/sdk"
	"github.com/iselfietest/cardio-sdk/infrastructure/browser"
	sdklog "github.com/iselfietest/cardio-sdk/log"
)

func main() {
	logger := sdklog.Install(sdklog.WithLevel(slog.LevelInfo))

	window, err := browser.NewWindow()
	if err != nil {
		logger.Error("browser window unavailable", "error", err)
		return
	}

	b := &bindings{
		guard:  sdk.Default(),
		window: window,
		logger: logger,
	}
	b.guard.Logger = logger
	b.install(js.Global())

	select {}
}
