package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"envsetup/internal/tools"
)

// helperTools are the programs envsetup may shell out to besides conda and
// python.
var helperTools = []string{"bash", "curl", "wget"}

func newToolsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect external tools",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the helper programs and build tools found on PATH",
		Args:  cobra.NoArgs,
		RunE:  a.runToolsList,
	})
	return cmd
}

func (a *app) runToolsList(cmd *cobra.Command, _ []string) error {
	statuses := tools.Probe(cmd.Context(), a.runner, helperTools, true)
	for _, name := range tools.KnownBuildTools() {
		check := tools.CheckBuildTools(a.runner, tools.ToolchainBinding{}, nil, []string{name}).Checks[0]
		statuses = append(statuses, tools.ToolInfo{
			Name:      check.Tool,
			Path:      check.Path,
			Available: check.Available,
			Error:     check.Error,
		})
	}

	if a.outputJSON {
		data, err := json.MarshalIndent(statuses, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	printStatusTable(cmd, statuses)
	return nil
}

func printStatusTable(cmd *cobra.Command, statuses []tools.ToolInfo) {
	out := cmd.OutOrStdout()
	if len(statuses) == 0 {
		fmt.Fprintln(out, "(no tool statuses)")
		return
	}

	rows := make([]tools.ToolInfo, len(statuses))
	copy(rows, statuses)
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Name < rows[j].Name
	})

	fmt.Fprintf(out, "%-10s %-12s %-4s %s\n", "Tool", "Version", "OK", "Path")
	for _, st := range rows {
		ok := "no"
		if st.Available {
			ok = "yes"
		}
		path := st.Path
		if path == "" {
			path = "(missing)"
		}
		fmt.Fprintf(out, "%-10s %-12s %-4s %s\n", st.Name, st.Version, ok, path)
		if st.Error != "" && st.Available {
			fmt.Fprintf(out, "  error: %s\n", st.Error)
		}
	}
}
