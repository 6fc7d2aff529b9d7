package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"envsetup/internal/issue"
	"envsetup/internal/paths"
	"envsetup/internal/platform"
	"envsetup/internal/tools"
)

// Version is set via -ldflags.
var Version = "dev"

// app holds the global flags and the host seams commands run against.
type app struct {
	configFile string
	verbose    bool
	outputJSON bool
	noProgress bool

	runner   tools.Runner
	platform func() platform.Info
	layout   func() (paths.Layout, error)
	stdin    *os.File
	getenv   func(string) string
}

func newApp() *app {
	return &app{
		runner:   tools.CmdRunner{},
		platform: platform.Detect,
		layout:   paths.Resolve,
		stdin:    os.Stdin,
		getenv:   os.Getenv,
	}
}

// Execute runs the root command. The returned error has already been
// printed.
func Execute(ctx context.Context) error {
	return fang.Execute(ctx, newRootCmd(newApp()),
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	)
}

// describedError renders suggestions of a wrapped *issue.Error as part of
// the message, so they reach the user whoever prints it.
type describedError struct{ err error }

func (e describedError) Error() string { return issue.Describe(e.err) }
func (e describedError) Unwrap() error { return e.err }

func withSuggestions(run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := run(cmd, args); err != nil {
			return describedError{err: err}
		}
		return nil
	}
}

func wrapRunE(cmd *cobra.Command) {
	if cmd.RunE != nil {
		cmd.RunE = withSuggestions(cmd.RunE)
	}
	for _, child := range cmd.Commands() {
		wrapRunE(child)
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "envsetup",
		Short: "Provision the conda or venv environment an application runs in",
		Long: `envsetup detects the host platform, finds or installs a package manager
runtime, and creates or updates a named environment from a manifest.

Running it again with the same manifest updates the environment in place.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default $XDG_CONFIG_HOME/envsetup/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "mirror the run log to stderr")
	cmd.PersistentFlags().BoolVar(&a.outputJSON, "json", false, "Output machine-readable JSON")
	cmd.PersistentFlags().BoolVar(&a.noProgress, "no-progress", false, "Disable interactive progress output")

	cmd.SetGlobalNormalizationFunc(underscoreToDash)
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%w\n\n%s", err, c.UsageString())
	})

	cmd.AddCommand(newCondaCmd(a))
	cmd.AddCommand(newVenvCmd(a))
	cmd.AddCommand(newDetectCmd(a))
	cmd.AddCommand(newDoctorCmd(a))
	cmd.AddCommand(newToolsCmd(a))
	cmd.AddCommand(newConfigCmd(a))

	wrapRunE(cmd)
	return cmd
}

// underscoreToDash lets --env_dir and --install_dir stand in for their
// dashed spellings.
func underscoreToDash(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}
