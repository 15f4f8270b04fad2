/*
Opens a window, builds the Vulkan context needed to draw a triangle and
waits for window events until the window is closed.
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/hellotriangle/engine"
	"github.com/spaghettifunk/hellotriangle/engine/core"
)

func main() {
	configPath, ok := os.LookupEnv(core.EnvConfigPath)
	if !ok {
		configPath = "anima.toml"
	}
	cfg, err := core.LoadConfig(configPath, ".env")
	if err != nil {
		core.LogFatal("failed to load configuration: %s", err)
	}

	e := engine.New(engine.NewApplication(cfg))
	if err := e.Initialize(); err != nil {
		core.LogFatal("failed to initialize: %s", err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// the loop owns the context, so the signal only asks it to stop
	go func() {
		sig := <-sigCh
		core.LogInfo("received %s, closing window", sig)
		e.RequestClose()
	}()

	// run engine
	err = e.Run()
	signal.Stop(sigCh)
	if err != nil {
		core.LogFatal("%s", err)
	}
}
