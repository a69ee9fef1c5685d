/*
LoveVK editor: drop images onto the window (or into the asset directory) and
they are uploaded as sampled Vulkan textures.
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/lovevk/engine"
	"github.com/spaghettifunk/lovevk/engine/core"
)

func main() {
	configPath := flag.String("config", "lovevk.toml", "path to the editor configuration")
	flag.Parse()

	config, err := core.LoadConfig(*configPath)
	if err != nil {
		core.LogFatal("failed to load configuration: %s", err)
	}

	e := engine.New(config)
	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		core.LogFatal("failed to initialize: %s", err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// start shutdown goroutine
	go func() {
		// capture sigterm and other system call here
		<-sigCh
		e.Stop()
	}()

	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown failed: %s", err)
	}
	if runErr != nil {
		core.LogFatal("editor stopped: %s", runErr)
	}
}
