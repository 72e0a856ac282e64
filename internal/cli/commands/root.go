package commands

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// globalOptions holds the persistent flags shared by every subcommand
type globalOptions struct {
	configPath string
	manifest   string
	format     string
	noColor    bool
	verbose    bool
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "lineage",
		Short: "Ancestry queries across native, GDScript and C# classes",
		Long: color.CyanString(`Lineage - cross-runtime type registry

Lineage catalogs the engine's native classes together with the script
classes declared in GDScript and C#, and answers ancestry questions
across all of them.

  • Ancestor chains for live objects and class names
  • Cached "does A inherit from B" checks
  • Native classes filtered through the anchor's exclusion list`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default: lineage.yml in the working directory)")
	flags.StringVar(&opts.manifest, "manifest", "", "Project manifest, overrides the configured one")
	flags.StringVar(&opts.format, "format", "table", "Output format: json or table")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	flags.BoolVar(&opts.verbose, "verbose", false, "Log registry diagnostics and cache activity")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newInheritsCommand(opts))
	rootCmd.AddCommand(newChainCommand(opts))
	rootCmd.AddCommand(newAncestorsCommand(opts))
	rootCmd.AddCommand(newDescribeCommand(opts))
	rootCmd.AddCommand(newClassesCommand(opts))
	rootCmd.AddCommand(newDiagnosticsCommand(opts))

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the lineage version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			// Set GoVersion to actual runtime if not set at build time
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			out := cmd.OutOrStdout()
			for _, row := range [][2]string{
				{"Lineage version: ", Version},
				{"Git commit: ", GitCommit},
				{"Build date: ", BuildDate},
				{"Go version: ", goVer},
			} {
				titleColor.Fprint(out, row[0])
				fmt.Fprintln(out, row[1])
			}
		},
	}
}

// renderedError carries a message already formatted for the terminal
type renderedError struct {
	text string
	err  error
}

func (e *renderedError) Error() string { return e.err.Error() }
func (e *renderedError) Unwrap() error { return e.err }

// Execute runs the root command
func Execute() error {
	return run(NewRootCommand())
}

// run executes cmd and reports a failure on its error stream
func run(cmd *cobra.Command) error {
	err := cmd.Execute()
	if err == nil {
		return nil
	}

	var rendered *renderedError
	if errors.As(err, &rendered) {
		fmt.Fprint(cmd.ErrOrStderr(), rendered.text)
		return err
	}
	errorColor := color.New(color.FgRed, color.Bold)
	errorColor.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	return err
}
