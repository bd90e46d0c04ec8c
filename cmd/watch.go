package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/comcastmike/rdkservices/internal/daemon"
	"github.com/comcastmike/rdkservices/internal/server/handlers"
	"github.com/comcastmike/rdkservices/internal/util"
)

// WatchOptions holds the flags of the watch command
type WatchOptions struct {
	Events       []string
	Count        int
	OutputFormat string
}

// NewWatchCommand creates the 'watch' command
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print display notifications as they happen",
		Example: `  displaysettings watch
  displaysettings watch -e resolutionChanged -e connectedVideoDisplaysUpdated
  displaysettings watch --count 1 -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Events, "event", "e", []string{"*"}, "Notification to watch, repeatable (* for all)")
	cmd.Flags().IntVarP(&opts.Count, "count", "n", 0, "Exit after this many notifications (0 runs until interrupted)")
	cmd.Flags().StringVarP(&opts.OutputFormat, "output", "o", "text", "Output format (text or json)")

	return cmd
}

func runWatch(out io.Writer, opts *WatchOptions) error {
	eventsURL, err := daemon.NewManager().EventsURL()
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial(eventsURL, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to connect to %s", eventsURL)
	}
	defer conn.Close()

	for _, ev := range opts.Events {
		if err := conn.WriteJSON(handlers.SessionRequest{Type: "register", Event: ev, ID: "watch"}); err != nil {
			return errors.Wrap(err, "failed to register")
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	}()

	// Pings from the server are answered by the default ping handler
	// while ReadJSON runs.
	seen := 0
	for opts.Count == 0 || seen < opts.Count {
		var msg handlers.SessionMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return errors.Wrap(err, "event session ended")
		}

		switch msg.Type {
		case "notification":
			seen++
			if err := printNotification(out, opts.OutputFormat, msg); err != nil {
				return err
			}
		case "registered":
			util.GetLogger().Debug("Registered", "event", msg.Event, "id", msg.ID)
		case "error":
			return errors.Errorf("server rejected request: %s", msg.Error)
		}
	}
	return nil
}

func printNotification(out io.Writer, format string, msg handlers.SessionMessage) error {
	if format == "json" {
		data, err := json.Marshal(map[string]interface{}{
			"event":  msg.Event,
			"params": msg.Params,
		})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	params, _ := json.Marshal(msg.Params)
	if msg.Params == nil {
		params = []byte("{}")
	}
	_, err := fmt.Fprintf(out, "%s %s %s\n",
		color.New(color.Faint).Sprint(time.Now().Format("15:04:05.000")),
		color.New(color.FgCyan, color.Bold).Sprint(msg.Event),
		string(params))
	return err
}
