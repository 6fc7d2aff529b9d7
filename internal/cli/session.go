package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"envsetup/internal/config"
	"envsetup/internal/issue"
	"envsetup/internal/logx"
	"envsetup/internal/paths"
	"envsetup/internal/tui"
)

// session is the per-invocation state shared by the provisioning commands.
type session struct {
	cfg     config.Config
	cfgPath string
	layout  paths.Layout
	logger  *log.Logger
	closer  io.Closer
	mode    tui.OutputMode
}

func (s *session) Close() {
	if s.closer != nil {
		_ = s.closer.Close()
	}
}

// loadConfig resolves the user layout and the effective configuration.
func (a *app) loadConfig(cmd *cobra.Command) (config.Config, string, paths.Layout, error) {
	layout, err := a.layout()
	if err != nil {
		return config.Config{}, "", paths.Layout{}, err
	}
	cfg, cfgPath, err := config.Load(cmd.Context(), config.LoadOptions{
		ConfigFilePath: a.configFile,
		SearchPaths:    layout.ConfigSearchPaths(),
	})
	if err != nil {
		return config.Config{}, "", paths.Layout{}, err
	}
	return cfg, cfgPath, paths.ApplyConfig(layout, cfg), nil
}

// openSession loads configuration, rejects invalid values and opens the
// run log.
func (a *app) openSession(cmd *cobra.Command) (*session, error) {
	cfg, cfgPath, layout, err := a.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	results := cfg.Validate()
	for _, r := range results {
		if r.Level == "warning" {
			fmt.Fprintln(cmd.ErrOrStderr(), tui.StatusStyle("warning").Render("warning:")+" "+r.Message)
		}
	}
	if config.HasErrors(results) {
		var msgs []string
		for _, r := range results {
			if r.Level == "error" {
				msgs = append(msgs, r.Message)
			}
		}
		e := issue.New(issue.KindUnknown, "validate configuration", errors.New(strings.Join(msgs, "; ")))
		if cfgPath != "" {
			e.WithResource(cfgPath)
		}
		return nil, e.WithSuggestion("Fix the values above or run 'envsetup config show' to see the effective configuration")
	}

	if err := layout.EnsureStateDirs(); err != nil {
		return nil, err
	}
	var mirror io.Writer
	if a.verbose {
		mirror = cmd.ErrOrStderr()
	}
	logger, closer, err := logx.New(logx.Options{Dir: layout.LogsDir, Mirror: mirror})
	if err != nil {
		return nil, err
	}
	logger.Info("start", "command", cmd.CommandPath(), "config", cfgPath, "version", Version)

	return &session{
		cfg:     cfg,
		cfgPath: cfgPath,
		layout:  layout,
		logger:  logger,
		closer:  closer,
		mode:    tui.DetectMode(cmd.OutOrStdout(), a.noProgress, a.outputJSON),
	}, nil
}

// stage prints one plain-mode progress line.
func stage(w io.Writer, status, name, detail string) {
	fmt.Fprintf(w, "%s  %-12s %s\n", tui.StatusStyle(status).Render(fmt.Sprintf("%-11s", status)), name, tui.NonEmptyOrDash(detail))
}

// warnAll prints non-fatal issues before work continues.
func warnAll(w io.Writer, logger *log.Logger, warnings []error) {
	for _, warn := range warnings {
		logger.Warn("warning", "kind", issue.KindOf(warn), "err", warn)
		fmt.Fprintln(w, tui.StatusStyle("warning").Render("warning:")+" "+issue.Describe(warn))
	}
}
