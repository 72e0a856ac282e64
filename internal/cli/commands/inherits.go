package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/lineage/internal/cli/ui"
)

type inheritsResult struct {
	Child    string `json:"child"`
	Parent   string `json:"parent"`
	Inherits bool   `json:"inherits"`
	Cached   bool   `json:"cached"`
}

// newInheritsCommand creates the 'inherits' command
func newInheritsCommand(opts *globalOptions) *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "inherits <child> <parent>",
		Short: "Check whether one class descends from another",
		Long: `Check whether <child> is <parent> or descends from it.

Both names are resolved the same way: GDScript classes first, then C#
classes, then native classes. Scripted chains continue into the native
hierarchy at their boundary, so a script class inherits from every native
ancestor of the class it extends.

Verdicts are cached. Use --no-cache to recompute a verdict and overwrite
the stored one.`,
		Example: `  # A script class against a native ancestor
  lineage inherits ChildScript Node2D

  # Recompute, ignoring the stored verdict
  lineage inherits TestChildCSharp Node --no-cache`,
		Args: cobra.ExactArgs(2),
		RunE: withSession(opts, func(cmd *cobra.Command, s *session, args []string) error {
			child, parent := args[0], args[1]

			before := s.registry.Stats()
			verdict, err := s.registry.InheritFrom(cmd.Context(), child, parent, !noCache)
			if err != nil {
				return s.explain(err)
			}
			after := s.registry.Stats()

			result := inheritsResult{
				Child:    child,
				Parent:   parent,
				Inherits: verdict,
				Cached:   after.Hits > before.Hits,
			}
			s.logger.Debug("inheritance checked",
				zap.String("child", child),
				zap.String("parent", parent),
				zap.Bool("verdict", verdict),
				zap.Bool("cached", result.Cached),
			)

			return s.formatter(cmd).Format(result, func(w io.Writer) {
				fmt.Fprintln(w, ui.FormatVerdict(verdict, opts.noColor))
			})
		}),
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Recompute the verdict and overwrite the cached one")
	return cmd
}
