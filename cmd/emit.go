package cmd

import (
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/comcastmike/rdkservices/internal/daemon"
	"github.com/comcastmike/rdkservices/internal/hal"
	"github.com/comcastmike/rdkservices/internal/server/handlers"
)

// NewEmitCommand creates the 'emit' command
func NewEmitCommand() *cobra.Command {
	var payload string

	cmd := &cobra.Command{
		Use:   "emit <kind> [word...]",
		Short: "Inject a raw hardware event into a simulated device",
		Long: `Inject a raw hardware event into the event bus of a server running the
sim backend. The payload is built from 32-bit little-endian words, or given
verbatim as hex with --payload.

Kinds: PreResolutionChange, PostResolutionChange, HotPlug,
ActiveInputChanged, ZoomSettingsChanged.`,
		Example: `  # Unplug port 0
  displaysettings emit HotPlug 0 0

  # Resolution change to 1280x720
  displaysettings emit PreResolutionChange 1280 720
  displaysettings emit PostResolutionChange 1280 720

  # A truncated payload, dropped as malformed
  displaysettings emit HotPlug --payload 0100`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := hal.ParseEventKind(args[0])
			if err != nil {
				return err
			}
			req := handlers.EmitRequest{Kind: kind.String(), Payload: payload}
			for _, arg := range args[1:] {
				word, err := strconv.Atoi(arg)
				if err != nil {
					return errors.Errorf("payload word %q is not an integer", arg)
				}
				req.Words = append(req.Words, word)
			}

			var resp map[string]interface{}
			if err := daemon.NewManager().CallAPI(http.MethodPost, "/api/display/emit", req, &resp); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), "text", resp)
		},
	}

	cmd.Flags().StringVar(&payload, "payload", "", "Raw payload as hex, overrides the words")
	return cmd
}
