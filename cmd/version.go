package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/comcastmike/rdkservices/internal/daemon"
	"github.com/comcastmike/rdkservices/internal/version"
)

// NewVersionCommand creates the 'version' command
func NewVersionCommand() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the client and server versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := version.Current()
			info := client.Fields()

			dm := daemon.NewManager()
			var serverInfo map[string]interface{}
			if dm.IsServerRunning() && dm.CallAPI(http.MethodGet, "/api/server/info", nil, &serverInfo) == nil {
				info["server"] = serverInfo
			}

			if outputFormat != "text" {
				return printResult(cmd.OutOrStdout(), outputFormat, info)
			}
			fmt.Fprintln(cmd.OutOrStdout(), client)
			if serverInfo != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "server %v (build %v, backend %v)\n", serverInfo["version"], serverInfo["build_id"], serverInfo["backend"])
			}
			return nil
		},
	}

	addOutputFlag(cmd, &outputFormat)
	return cmd
}
