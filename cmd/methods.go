package cmd

import (
	"net/http"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/comcastmike/rdkservices/internal/daemon"
	"github.com/comcastmike/rdkservices/internal/util"
)

// NewMethodsCommand creates the 'methods' command
func NewMethodsCommand() *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "methods",
		Short: "List the methods the server dispatches",
		Example: `  displaysettings methods
  displaysettings methods --group audio`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Methods []struct {
					Name  string `json:"name"`
					Group string `json:"group"`
				} `json:"methods"`
			}
			if err := daemon.NewManager().CallAPI(http.MethodGet, "/api/display/methods", nil, &resp); err != nil {
				return err
			}

			rows := make([]map[string]interface{}, 0, len(resp.Methods))
			for _, m := range resp.Methods {
				if group != "" && m.Group != group {
					continue
				}
				groupColor := color.New(color.FgGreen)
				if m.Group == "audio" {
					groupColor = color.New(color.FgYellow)
				}
				rows = append(rows, map[string]interface{}{
					"name":  m.Name,
					"group": groupColor.Sprint(m.Group),
				})
			}

			util.FprintTable(cmd.OutOrStdout(), []util.TableColumn{
				{Header: "METHOD", Key: "name"},
				{Header: "GROUP", Key: "group"},
			}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "Only list methods of one field-group (video or audio)")
	return cmd
}
