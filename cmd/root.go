package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comcastmike/rdkservices/config"
	"github.com/comcastmike/rdkservices/internal/util"
	"github.com/comcastmike/rdkservices/internal/version"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	var (
		verbose   bool
		serverURL string
	)

	cmd := &cobra.Command{
		Use:   "displaysettings",
		Short: "Display settings service and client",
		Long: `displaysettings serves the video and audio settings of a set-top or TV
device, turns hardware display events into subscriber notifications, and
talks to a running server from the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.InitLogger(verbose)
			util.SetupGlobalLogger()
			if serverURL != "" {
				config.Set("server.url", serverURL)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flag("version").Changed {
				fmt.Fprintln(cmd.OutOrStdout(), version.Current())
				return nil
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", util.IsVerbose(), "Enable debug logging")
	cmd.PersistentFlags().StringVar(&serverURL, "url", "", "Server URL (default http://localhost:<server.port>)")
	cmd.Flags().BoolP("version", "v", false, "Print version information and exit")

	cmd.AddCommand(NewServerCmd())
	cmd.AddCommand(NewCallCommand())
	cmd.AddCommand(NewMethodsCommand())
	cmd.AddCommand(NewWatchCommand())
	cmd.AddCommand(NewEmitCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
