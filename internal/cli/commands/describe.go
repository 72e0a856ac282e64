package commands

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/lineage/internal/cli/ui"
	"github.com/conduit-lang/lineage/runtime/hierarchy"
)

// newDescribeCommand creates the 'describe' command
func newDescribeCommand(opts *globalOptions) *cobra.Command {
	var originFlag string

	cmd := &cobra.Command{
		Use:   "describe <class>",
		Short: "Show the descriptor of a class",
		Long: `Show the catalog descriptor of a class.

Without --origin the name is resolved like every other query: GDScript
first, then C#, then native. Use --origin to read a specific partition,
for instance when a name is declared in both scripting runtimes.`,
		Example: `  lineage describe Type
  lineage describe Shared --origin csharp`,
		Args: cobra.ExactArgs(1),
		RunE: withSession(opts, func(cmd *cobra.Command, s *session, args []string) error {
			origin, err := parseOriginFlag(originFlag)
			if err != nil {
				return err
			}

			name := args[0]
			if origin == hierarchy.OriginNone {
				chain, err := s.registry.ChainOf(name)
				if err != nil {
					return s.explain(err)
				}
				origin = chain[0].Origin
			}

			var desc hierarchy.ClassDescriptor
			if origin == hierarchy.OriginNative {
				desc, err = s.registry.GetNativeDescriptor(name, true)
			} else {
				desc, err = s.registry.GetScriptedDescriptor(origin, name, true)
			}
			if err != nil {
				return s.explain(err)
			}

			return s.formatter(cmd).Format(desc, func(w io.Writer) {
				kv := ui.NewKeyValueTable(w, opts.noColor)
				kv.AddRow("Name", desc.Name)
				kv.AddRow("Origin", desc.Origin.String())
				if desc.BaseName != "" {
					kv.AddRow("Base", desc.BaseName)
				}
				if desc.NativeBase != "" {
					kv.AddRow("Native base", desc.NativeBase)
				}
				if desc.Origin == hierarchy.OriginNative {
					kv.AddRow("Instantiable", strconv.FormatBool(desc.Instantiable))
				}
				kv.AddRow("Members", strconv.Itoa(desc.DeclaredMemberCount))
				if desc.Path != "" {
					kv.AddRow("Path", desc.Path)
				}

				keys := make([]string, 0, len(desc.Properties))
				for key := range desc.Properties {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				for _, key := range keys {
					kv.AddRow(key, strings.Join(desc.Properties[key], ", "))
				}
				kv.Render()
			})
		}),
	}

	cmd.Flags().StringVar(&originFlag, "origin", "", "Partition to read: native, gdscript or csharp")
	return cmd
}

// newClassesCommand creates the 'classes' command
func newClassesCommand(opts *globalOptions) *cobra.Command {
	var originFlag string

	cmd := &cobra.Command{
		Use:   "classes",
		Short: "List cataloged classes",
		Long: `List the classes in the catalog, GDScript first, then C#, then native.

Native classes that are abstract without members, or that the anchor
excludes, never enter the catalog and are not listed.`,
		Example: `  lineage classes
  lineage classes --origin native --format json`,
		Args: cobra.NoArgs,
		RunE: withSession(opts, func(cmd *cobra.Command, s *session, args []string) error {
			origin, err := parseOriginFlag(originFlag)
			if err != nil {
				return err
			}

			classes, err := s.registry.Classes(origin)
			if err != nil {
				return s.explain(err)
			}

			return s.formatter(cmd).Format(classes, func(w io.Writer) {
				table := ui.NewTable(w, opts.noColor, "Class", "Origin", "Base", "Native base", "Path")
				for _, c := range classes {
					table.AddRow(c.Name, c.Origin.String(), c.BaseName, c.NativeBase, c.Path)
				}
				table.Render()
				fmt.Fprintf(w, "\n%d classes\n", table.Len())
			})
		}),
	}

	cmd.Flags().StringVar(&originFlag, "origin", "", "Only list one partition: native, gdscript or csharp")
	return cmd
}
