package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/lineage/internal/cli/ui"
	"github.com/conduit-lang/lineage/runtime/hierarchy"
)

type diagnosticsResult struct {
	Ready       bool                   `json:"ready"`
	Error       string                 `json:"error,omitempty"`
	Diagnostics []hierarchy.Diagnostic `json:"diagnostics"`
}

// newDiagnosticsCommand creates the 'diagnostics' command
func newDiagnosticsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "diagnostics",
		Short: "Show findings from building the registry",
		Long: `Show the findings recorded while building the registry: scripts that
failed to load, names declared in both scripting runtimes, duplicate
declarations, dangling bases and broken inheritance cycles.

A registry that failed to build still reports its findings here.`,
		Args: cobra.NoArgs,
		RunE: withSession(opts, func(cmd *cobra.Command, s *session, args []string) error {
			result := diagnosticsResult{Ready: true, Diagnostics: s.registry.Diagnostics()}
			if result.Diagnostics == nil {
				result.Diagnostics = []hierarchy.Diagnostic{}
			}
			if _, err := s.registry.Classes(hierarchy.OriginNone); err != nil {
				result.Ready = false
				result.Error = err.Error()
			}

			return s.formatter(cmd).Format(result, func(w io.Writer) {
				if !result.Ready {
					fmt.Fprint(w, ui.RegistryError(result.Error, opts.noColor))
					fmt.Fprintln(w)
				}
				if len(result.Diagnostics) == 0 {
					fmt.Fprintln(w, "No diagnostics")
					return
				}

				table := ui.NewTable(w, opts.noColor, "Code", "Origin", "Class", "Path", "Message")
				for _, d := range result.Diagnostics {
					origin := ""
					if d.Origin != hierarchy.OriginNone {
						origin = d.Origin.String()
					}
					table.AddRow(d.Code, origin, d.Class, d.Path, d.Message)
				}
				table.Render()
			})
		}),
	}
}
