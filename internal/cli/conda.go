package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"envsetup/internal/bootstrap"
	"envsetup/internal/envmgr"
	"envsetup/internal/paths"
	"envsetup/internal/platform"
	"envsetup/internal/tools"
	"envsetup/internal/tui"
)

type condaOptions struct {
	name       string
	manifest   string
	installDir string
	assumeYes  bool
}

func newCondaCmd(a *app) *cobra.Command {
	opts := &condaOptions{}
	cmd := &cobra.Command{
		Use:   "conda",
		Short: "Create or update a conda environment, installing Miniconda first if needed",
		Example: `  envsetup conda
  envsetup conda -n clr3 -s environment.yml
  envsetup conda --install-dir ~/opt/miniconda3 --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runConda(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "environment name (default conda.env_name, clr3)")
	cmd.Flags().StringVarP(&opts.manifest, "manifest", "s", "", "environment manifest (default conda.manifest, environment.yml)")
	cmd.Flags().StringVar(&opts.installDir, "install-dir", "", "where Miniconda is installed when conda is missing (default ~/miniconda3)")
	cmd.Flags().BoolVarP(&opts.assumeYes, "yes", "y", false, "install Miniconda without asking")
	return cmd
}

func (a *app) runConda(cmd *cobra.Command, opts *condaOptions) error {
	sess, err := a.openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	cfg := sess.cfg
	info := a.detectPlatform(cmd, sess)
	result := provisionResult{Platform: info}

	installDir := sess.layout.InstallDir
	if opts.installDir != "" {
		installDir = sess.layout.Expand(opts.installDir)
	}

	conda, found := a.resolveConda(info, installDir)
	if found {
		stage(a.progressWriter(cmd), "ok", "conda", conda)
	} else {
		res, err := a.bootstrapConda(cmd, sess, info, installDir, opts.assumeYes || cfg.AssumeYes)
		if err != nil {
			return err
		}
		conda = res.CondaPath
		result.Bootstrap = &res
	}

	binding, err := a.negotiate(cmd, sess, tools.VersionRequirement{
		Tool:    "conda",
		Generic: conda,
		Minimum: cfg.Conda.Minimum,
	})
	if err != nil {
		return err
	}
	result.Toolchain = binding
	result.BuildTools = a.checkBuildTools(cmd, sess, binding, nil, cfg.Conda.BuildTools)

	mgr := &envmgr.CondaManager{Runner: a.runner, Conda: binding.ExecutablePath, Logger: sess.logger}
	spec := envmgr.Spec{
		Name:         firstNonEmpty(opts.name, cfg.Conda.EnvName),
		ManifestPath: absPath(firstNonEmpty(opts.manifest, cfg.Conda.Manifest)),
	}
	result.Environment, err = a.ensureEnvironment(cmd, sess, mgr, spec)
	if err != nil {
		return err
	}
	result.Activate = envmgr.ActivationHint(mgr, spec)
	return a.writeResult(cmd, sess, result)
}

// resolveConda looks for conda on PATH, then inside installDir.
func (a *app) resolveConda(info platform.Info, installDir string) (string, bool) {
	if path, err := a.runner.LookPath("conda"); err == nil {
		return path, true
	}
	candidate := paths.CondaExecutable(installDir, goosFor(info))
	if ok, _ := paths.FileExists(candidate); ok {
		return candidate, true
	}
	return "", false
}

func (a *app) bootstrapConda(cmd *cobra.Command, sess *session, info platform.Info, installDir string, assumeYes bool) (bootstrap.Result, error) {
	ctx := cmd.Context()
	inst := &bootstrap.Installer{
		Runner:        a.runner,
		Prompter:      bootstrap.SelectPrompter(a.stdin, cmd.ErrOrStderr(), assumeYes),
		Fetcher:       bootstrap.SelectFetcher(a.runner, info, &bootstrap.HTTPFetcher{UserAgent: "envsetup/" + Version}),
		Platform:      info,
		Logger:        sess.logger,
		InstallDir:    installDir,
		DownloadsDir:  sess.layout.DownloadsDir,
		InstallerName: sess.cfg.Conda.InstallerName,
		URLTemplate:   sess.cfg.Conda.InstallerURL,
		Shell:         bootstrap.DetectShell(a.getenv("SHELL"), info),
	}
	details := map[string]string{
		"download": bootstrap.RenderURL(firstNonEmpty(sess.cfg.Conda.InstallerURL, bootstrap.DefaultURLTemplate),
			firstNonEmpty(sess.cfg.Conda.InstallerName, "Miniconda3"), info),
		"install": installDir,
	}

	if sess.mode != tui.ModeTUI {
		w := a.progressWriter(cmd)
		inst.OnTransition = func(from, to bootstrap.State) {
			for _, msg := range transitionRows(from, to) {
				stage(w, msg.Fields["STATUS"], msg.Key, details[msg.Key])
			}
		}
		return inst.Run(ctx)
	}

	if err := inst.Preflight(); err != nil {
		return bootstrap.Result{}, err
	}
	inst.Prompter = bootstrap.AskNow(ctx, inst.Prompter, inst.Question())

	model := tui.NewProgressModel("Installing "+sess.cfg.Conda.InstallerName, []tui.Column{
		{Header: "STAGE", Width: 10},
		{Header: "STATUS", Width: 11},
		{Header: "DETAIL", Width: 48},
	})
	model.AddRow("download", []string{"download", "pending", details["download"]})
	model.AddRow("install", []string{"install", "pending", details["install"]})

	var res bootstrap.Result
	err := tui.RunWithWork(cmd.OutOrStdout(), model, func(send func(tea.Msg)) error {
		if hf, ok := inst.Fetcher.(*bootstrap.HTTPFetcher); ok {
			hf.Progress = tui.NewTransferReporter(send, "download").Report
		}
		inst.OnTransition = func(from, to bootstrap.State) {
			for _, msg := range transitionRows(from, to) {
				send(msg)
			}
		}
		var err error
		res, err = inst.Run(ctx)
		return err
	})
	return res, err
}

// transitionRows maps an installer state change onto the download and
// install rows.
func transitionRows(from, to bootstrap.State) []tui.RowUpdateMsg {
	row := func(key, status string) tui.RowUpdateMsg {
		return tui.RowUpdateMsg{Key: key, Fields: map[string]string{"STATUS": status}}
	}
	switch to {
	case bootstrap.StateDownloading:
		return []tui.RowUpdateMsg{row("download", "downloading")}
	case bootstrap.StateInstalling:
		return []tui.RowUpdateMsg{row("download", "downloaded"), row("install", "installing")}
	case bootstrap.StateInstalled:
		return []tui.RowUpdateMsg{row("install", "installed")}
	case bootstrap.StateDeclined:
		return []tui.RowUpdateMsg{row("download", "declined"), row("install", "skipped")}
	case bootstrap.StateAbort:
		switch from {
		case bootstrap.StateDownloading:
			return []tui.RowUpdateMsg{row("download", "failed")}
		case bootstrap.StateInstalling:
			return []tui.RowUpdateMsg{row("install", "failed")}
		}
	}
	return nil
}

func goosFor(info platform.Info) string {
	if info.OSFamily == platform.Windows {
		return "windows"
	}
	return "unix"
}
