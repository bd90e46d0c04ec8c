package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var outputFormats = []string{"text", "json", "yaml"}

func addOutputFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVarP(format, "output", "o", "text", "Output format (text, json or yaml)")
	cmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return outputFormats, cobra.ShellCompDirectiveNoFileComp
	})
}

// printResult writes v in the requested format. Text output lists the
// top level keys in order.
func printResult(w io.Writer, format string, v map[string]interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	case "text":
		printSorted(w, v, "%s: %v\n")
		return nil
	default:
		return errors.Errorf("unknown output format %q, expected one of %v", format, outputFormats)
	}
}

// printSorted prints map entries sorted by key, skipping the success flag.
// Nested values are printed as compact JSON.
func printSorted(w io.Writer, m map[string]interface{}, lineFormat string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		if k == "success" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, lineFormat, color.New(color.FgCyan).Sprint(k), textValue(m[k]))
	}
}

func textValue(v interface{}) string {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", v)
	}
}
