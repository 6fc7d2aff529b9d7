package cli

import (
	"github.com/spf13/cobra"

	"envsetup/internal/envmgr"
	"envsetup/internal/platform"
	"envsetup/internal/tools"
)

type venvOptions struct {
	name     string
	envDir   string
	manifest string
}

func newVenvCmd(a *app) *cobra.Command {
	opts := &venvOptions{}
	cmd := &cobra.Command{
		Use:   "venv",
		Short: "Create or update a Python virtual environment",
		Example: `  envsetup venv
  envsetup venv -n clr3 -e ../venvs --manifest requirements.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runVenv(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "environment name (default venv.env_name, clr3)")
	cmd.Flags().StringVarP(&opts.envDir, "env-dir", "e", "", "directory holding the environment (default venv.env_dir, ../venvs)")
	cmd.Flags().StringVar(&opts.manifest, "manifest", "", "requirements file (default venv.manifest, requirements.txt)")
	return cmd
}

func (a *app) runVenv(cmd *cobra.Command, opts *venvOptions) error {
	sess, err := a.openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	cfg := sess.cfg.Venv
	info := a.detectPlatform(cmd, sess)
	result := provisionResult{Platform: info}

	binding, err := a.negotiate(cmd, sess, tools.VersionRequirement{
		Tool:       "python",
		Executable: cfg.Executable,
		Candidates: cfg.Candidates,
		Generic:    cfg.Generic,
		Minimum:    cfg.Minimum,
	})
	if err != nil {
		return err
	}
	result.Toolchain = binding
	result.BuildTools = a.checkBuildTools(cmd, sess, binding, cfg.Prebuilt, cfg.BuildTools)

	mgr := &envmgr.VenvManager{
		Runner:  a.runner,
		Python:  binding.ExecutablePath,
		Logger:  sess.logger,
		Windows: info.OSFamily == platform.Windows,
	}
	spec := envmgr.Spec{
		Name:          firstNonEmpty(opts.name, cfg.EnvName),
		ManifestPath:  absPath(firstNonEmpty(opts.manifest, cfg.Manifest)),
		RootDirectory: absPath(sess.layout.Expand(firstNonEmpty(opts.envDir, cfg.EnvDir))),
	}
	result.Environment, err = a.ensureEnvironment(cmd, sess, mgr, spec)
	if err != nil {
		return err
	}
	result.Activate = envmgr.ActivationHint(mgr, spec)
	return a.writeResult(cmd, sess, result)
}
