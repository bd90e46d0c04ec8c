package cmd

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/comcastmike/rdkservices/internal/daemon"
)

// CallOptions holds the flags of the call command
type CallOptions struct {
	OutputFormat string
	ParamsJSON   string
	NoStart      bool
}

// NewCallCommand creates the 'call' command
func NewCallCommand() *cobra.Command {
	opts := &CallOptions{}

	cmd := &cobra.Command{
		Use:   "call <method> [key=value...]",
		Short: "Invoke a display settings method",
		Long: `Invoke a display settings method on the running server. Parameters are
given as key=value pairs or as a JSON object with --params. Values that parse
as JSON numbers or booleans are sent as such.`,
		Example: `  displaysettings call getCurrentResolution
  displaysettings call setCurrentResolution videoDisplay=HDMI0 resolution=720p persist=false
  displaysettings call setVolumeLeveller --params '{"audioPort":"HDMI0","mode":1,"level":9}'
  displaysettings call getSupportedResolutions -o yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseCallParams(opts.ParamsJSON, args[1:])
			if err != nil {
				return err
			}

			dm := daemon.NewManager()
			if !opts.NoStart {
				if err := dm.EnsureServerRunning(); err != nil {
					return errors.Wrap(err, "failed to start server")
				}
			}

			var result map[string]interface{}
			if err := dm.CallAPI(http.MethodPost, "/api/display/"+args[0], params, &result); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.OutputFormat, result)
		},
	}

	addOutputFlag(cmd, &opts.OutputFormat)
	cmd.Flags().StringVar(&opts.ParamsJSON, "params", "", "Parameters as a JSON object")
	cmd.Flags().BoolVar(&opts.NoStart, "no-start", false, "Do not start the server when it is not running")

	return cmd
}

// parseCallParams merges the JSON object with key=value pairs, pairs
// taking precedence.
func parseCallParams(paramsJSON string, pairs []string) (map[string]interface{}, error) {
	params := map[string]interface{}{}
	if paramsJSON != "" {
		if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
			return nil, errors.Wrap(err, "--params is not a JSON object")
		}
	}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, errors.Errorf("parameter %q is not key=value", pair)
		}
		params[key] = parseValue(value)
	}
	return params, nil
}

func parseValue(s string) interface{} {
	if b, err := strconv.ParseBool(s); err == nil && (s == "true" || s == "false") {
		return b
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
