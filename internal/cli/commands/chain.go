package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/lineage/internal/cli/ui"
	"github.com/conduit-lang/lineage/runtime/hierarchy"
)

type chainResult struct {
	Subject string            `json:"subject"`
	Chain   []hierarchy.Class `json:"chain,omitempty"`
	Names   []string          `json:"names"`
}

func writeChain(s *session, cmd *cobra.Command, subject string, chain hierarchy.Chain, handles bool) error {
	result := chainResult{Subject: subject, Names: chain.Names()}
	if handles {
		result.Chain = chain
	}

	return s.formatter(cmd).Format(result, func(w io.Writer) {
		if handles {
			parts := make([]string, len(chain))
			for i, c := range chain {
				parts[i] = c.String()
			}
			fmt.Fprintln(w, strings.Join(parts, "\n"))
			return
		}

		steps := make([]ui.ChainStep, len(chain))
		for i, c := range chain {
			steps[i] = ui.ChainStep{Name: c.Name, Origin: c.Origin.String()}
		}
		fmt.Fprintln(w, ui.FormatChain(steps, s.opts.verbose, s.opts.noColor))
	})
}

// newChainCommand creates the 'chain' command
func newChainCommand(opts *globalOptions) *cobra.Command {
	var handles bool

	cmd := &cobra.Command{
		Use:   "chain <object>",
		Short: "Show the ancestor chain of a manifest object",
		Long: `Show the ancestor chain of an object listed in the project manifest.

The chain starts at the script attached to the object, walks up the scripted
bases, then continues through the native class the object was created as up
to the root class. An object without any resolvable class yields "Nil".`,
		Example: `  # Readable names
  lineage chain player

  # Origin-qualified handles, one per line
  lineage chain player --handles`,
		Args: cobra.ExactArgs(1),
		RunE: withSession(opts, func(cmd *cobra.Command, s *session, args []string) error {
			name := args[0]
			obj, ok := s.project.Object(name)
			if !ok {
				suggestions := ui.FindSimilar(name, s.project.Objects(), nil)
				err := fmt.Errorf("object %q is not in the manifest", name)
				return &renderedError{text: ui.ObjectNotFoundError(name, suggestions, opts.noColor), err: err}
			}

			chain, err := s.registry.ExtendingFrom(obj)
			if err != nil {
				return s.explain(err)
			}
			return writeChain(s, cmd, name, chain, handles)
		}),
	}

	cmd.Flags().BoolVar(&handles, "handles", false, "Print origin-qualified class handles instead of names")
	return cmd
}

// newAncestorsCommand creates the 'ancestors' command
func newAncestorsCommand(opts *globalOptions) *cobra.Command {
	var handles bool

	cmd := &cobra.Command{
		Use:   "ancestors <class>",
		Short: "Show the ancestor chain of a class",
		Args:  cobra.ExactArgs(1),
		Example: `  lineage ancestors GrandChildScript
  lineage ancestors Area2D --format json`,
		RunE: withSession(opts, func(cmd *cobra.Command, s *session, args []string) error {
			chain, err := s.registry.ChainOf(args[0])
			if err != nil {
				return s.explain(err)
			}
			return writeChain(s, cmd, args[0], chain, handles)
		}),
	}

	cmd.Flags().BoolVar(&handles, "handles", false, "Print origin-qualified class handles instead of names")
	return cmd
}
