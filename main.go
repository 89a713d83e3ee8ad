/*
Renders a procedurally generated grid with a hot-reloadable shader, either in
a window or headless.
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/gridmesh/engine"
	"github.com/spaghettifunk/gridmesh/engine/core"
	"github.com/spaghettifunk/gridmesh/testbed"
)

func main() {
	var (
		configPath string
		headless   bool
		frames     uint64
	)

	cmd := &cobra.Command{
		Use:           "gridmesh",
		Short:         "Render a procedural grid mesh",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := engine.DefaultApplicationConfig()
			if configPath != "" {
				loaded, err := engine.LoadConfig(configPath)
				if err != nil {
					return err
				}
				config = loaded
			}
			if headless {
				config.Renderer.Backend = "headless"
			}
			if cmd.Flags().Changed("frames") {
				config.Frames = frames
			}
			return run(config)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a TOML configuration file")
	cmd.Flags().BoolVar(&headless, "headless", false, "render without a window or GPU")
	cmd.Flags().Uint64Var(&frames, "frames", 0, "stop after this many frames (0 runs until closed)")

	if err := cmd.Execute(); err != nil {
		core.LogFatal("%s", err)
	}
}

func run(config *engine.ApplicationConfig) error {
	tb := testbed.NewGridGame(config)

	e, err := engine.New(tb.Game)
	if err != nil {
		return err
	}

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		return err
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer signal.Stop(sigCh)

	// GL objects belong to the render thread, so the handler only asks the loop to stop
	go func() {
		if _, ok := <-sigCh; ok {
			e.Stop()
		}
	}()

	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		return err
	}
	return runErr
}
