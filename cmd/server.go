package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/comcastmike/rdkservices/config"
	"github.com/comcastmike/rdkservices/internal/bridge"
	"github.com/comcastmike/rdkservices/internal/daemon"
	"github.com/comcastmike/rdkservices/internal/server"
	"github.com/comcastmike/rdkservices/internal/util"
)

// NewServerCmd creates the server command with subcommands
func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Manage the display settings server",
		Long:  `Manage the display settings server that owns the device state and event bridge.`,
	}

	cmd.AddCommand(newServerStartCmd())
	cmd.AddCommand(newServerStopCmd())
	cmd.AddCommand(newServerStatusCmd())
	cmd.AddCommand(newServerRestartCmd())

	return cmd
}

type serverStartOptions struct {
	port           int
	foreground     bool
	internalDaemon bool
	backend        string
	profile        string
}

// apply pushes command line overrides into the configuration
func (o *serverStartOptions) apply(cmd *cobra.Command) {
	if cmd.Flags().Changed("port") {
		config.Set("server.port", o.port)
	}
	if cmd.Flags().Changed("backend") {
		config.Set("hal.backend", o.backend)
	}
	if cmd.Flags().Changed("profile") {
		config.Set("hal.profile", o.profile)
	}
}

// daemonArgs forwards the overrides to a daemon child process
func (o *serverStartOptions) daemonArgs() []string {
	return []string{
		"--port", strconv.Itoa(config.GetServerPort()),
		"--backend", config.GetBackend(),
		"--profile", config.GetProfilePath(),
	}
}

func addServerStartFlags(cmd *cobra.Command, opts *serverStartOptions) {
	flags := cmd.Flags()
	flags.IntVarP(&opts.port, "port", "p", config.GetServerPort(), "Server port")
	flags.BoolVarP(&opts.foreground, "foreground", "f", false, "Run server in foreground (show logs)")
	flags.StringVar(&opts.backend, "backend", config.GetBackend(), "Hardware backend (sim or adb)")
	flags.StringVar(&opts.profile, "profile", config.GetProfilePath(), "Simulator device profile (.toml or .yaml)")

	cmd.RegisterFlagCompletionFunc("backend", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"sim", "adb"}, cobra.ShellCompDirectiveNoFileComp
	})
}

// newServerStartCmd creates the 'server start' subcommand
func newServerStartCmd() *cobra.Command {
	opts := &serverStartOptions{}

	cmd := &cobra.Command{
		Use:           "start",
		Short:         "Start the server",
		Long:          `Start the display settings server if it's not already running.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.apply(cmd)
			if opts.internalDaemon {
				return runServer(false)
			}
			if opts.foreground {
				return runServerInForeground()
			}
			return runServerInDaemon(opts)
		},
		Example: `  # Start server in background with the simulated device
  displaysettings server start

  # Start server in foreground (see logs)
  displaysettings server start -f

  # Drive a device over adb on a specific port
  displaysettings server start --backend adb -p 8080

  # Simulate a device described by a profile
  displaysettings server start --profile tv.toml`,
	}

	addServerStartFlags(cmd, opts)

	// Flag --internal-daemon is hidden in help message for internal use.
	cmd.Flags().BoolVar(&opts.internalDaemon, "internal-daemon", false, "")
	cmd.Flags().Lookup("internal-daemon").Hidden = true

	return cmd
}

// newServerStopCmd creates the 'server stop' subcommand
func newServerStopCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:           "stop",
		Short:         "Stop the server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				config.Set("server.port", port)
			}
			if err := daemon.NewManager().StopServer(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "server stopped")
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", config.GetServerPort(), "Server port")
	return cmd
}

// newServerStatusCmd creates the 'server status' subcommand
func newServerStatusCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check server status",
		Long:  `Check if the display settings server is running and display its status.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dm := daemon.NewManager()
			out := cmd.OutOrStdout()

			if !dm.IsServerRunning() {
				fmt.Fprintf(out, "%s Server is not running\n", color.RedString("✗"))
				fmt.Fprintln(out, "   Use 'displaysettings server start' to start the server")
				return nil
			}

			var status map[string]interface{}
			if err := dm.CallAPI("GET", "/api/status", nil, &status); err != nil {
				return err
			}
			if outputFormat != "text" {
				return printResult(out, outputFormat, status)
			}

			fmt.Fprintf(out, "%s Server is running\n", color.GreenString("✓"))
			fmt.Fprintf(out, "   API endpoint: %s\n", color.CyanString(dm.URL()+"/api/display"))
			fmt.Fprintf(out, "   Backend: %v  Version: %v  Uptime: %v\n", status["backend"], status["version"], status["uptime"])
			if b, ok := status["bridge"].(map[string]interface{}); ok {
				fmt.Fprintf(out, "   Pending hotplug ports: %v\n", b["pendingHotplug"])
				if subs, ok := b["subscribers"].(map[string]interface{}); ok {
					fmt.Fprintln(out, "   Subscribers:")
					printSorted(out, subs, "     - %s: %v\n")
				}
				if events, ok := b["events"].(map[string]interface{}); ok {
					fmt.Fprintln(out, "   Events:")
					printSorted(out, events, "     - %s: %v\n")
				}
			}
			return nil
		},
	}

	addOutputFlag(cmd, &outputFormat)
	return cmd
}

// newServerRestartCmd creates the 'server restart' subcommand
func newServerRestartCmd() *cobra.Command {
	opts := &serverStartOptions{}

	cmd := &cobra.Command{
		Use:           "restart",
		Short:         "Restart the server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.apply(cmd)
			dm := daemon.NewManager()
			if dm.IsServerRunning() {
				if err := dm.StopServer(); err != nil {
					return err
				}
			}
			if opts.foreground {
				return runServerInForeground()
			}
			return runServerInDaemon(opts)
		},
	}

	addServerStartFlags(cmd, opts)
	return cmd
}

// runServerInDaemon starts the server as a background process
func runServerInDaemon(opts *serverStartOptions) error {
	dm := daemon.NewManager()
	switch err := dm.CheckHealth(); err {
	case nil:
		fmt.Printf("server has been already started at %s\n", dm.URL())
		return nil
	case daemon.ErrServerMismatched:
		return errors.Wrapf(err, "port %d is already used", config.GetServerPort())
	}

	if err := dm.StartServer(opts.daemonArgs()...); err != nil {
		return err
	}
	fmt.Printf("server has been started at %s\n", dm.URL())
	return nil
}

func runServerInForeground() error {
	dm := daemon.NewManager()
	switch err := dm.CheckHealth(); err {
	case nil:
		fmt.Printf("server has been already started at %s\n", dm.URL())
		return nil
	case daemon.ErrServerMismatched:
		return errors.Wrapf(err, "port %d is already used", config.GetServerPort())
	}
	return runServer(true)
}

// runServer serves until SIGINT or SIGTERM
func runServer(interactive bool) error {
	b, err := openBackend(config.GetBackend())
	if err != nil {
		return err
	}
	defer b.close()

	br, err := bridge.New(b.display, b.bus, bridge.Options{
		DebounceWindow: config.GetDebounceWindow(),
		PayloadVersion: config.GetPayloadVersion(),
	})
	if err != nil {
		return err
	}

	srv := server.NewDisplayServer(config.GetServerPort(), b.name, b.display, br)
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	if interactive {
		fmt.Printf("%s %s %s\n", color.GreenString("Display settings server"), color.CyanString("➜"), color.BlueString("http://localhost:%d/api/display", config.GetServerPort()))
		fmt.Printf("%s\n", color.CyanString("Press Ctrl+C to stop..."))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		// Stopped through the API or failed to listen
		srv.Stop()
		if err != nil {
			return errors.Wrapf(err, "failed to start server on port %d", config.GetServerPort())
		}
		return nil
	case sig := <-sigChan:
		util.GetLogger().Info("Shutting down server", "signal", sig.String())
	}

	if err := srv.Stop(); err != nil {
		util.GetLogger().Error("Error stopping server", "error", err)
	}
	return <-errChan
}
