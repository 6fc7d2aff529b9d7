package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"envsetup/internal/issue"
)

const (
	// AppName names the config directory and the environment prefix.
	AppName = "envsetup"
	// EnvPrefix is prepended to upper-cased keys for environment overrides.
	EnvPrefix = "ENVSETUP"
	// LocalFileName is looked up in the working directory.
	LocalFileName = "envsetup.yaml"
)

// Config is the effective configuration after defaults, file and
// environment have been merged.
type Config struct {
	AssumeYes bool        `yaml:"assume_yes" mapstructure:"assume_yes" json:"assume_yes"`
	Log       LogConfig   `yaml:"log" mapstructure:"log" json:"log"`
	Conda     CondaConfig `yaml:"conda" mapstructure:"conda" json:"conda"`
	Venv      VenvConfig  `yaml:"venv" mapstructure:"venv" json:"venv"`
}

type LogConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir" json:"dir"`
}

// CondaConfig drives the conda front-end and the Miniconda bootstrap.
type CondaConfig struct {
	EnvName    string `yaml:"env_name" mapstructure:"env_name" json:"env_name"`
	Manifest   string `yaml:"manifest" mapstructure:"manifest" json:"manifest"`
	InstallDir string `yaml:"install_dir" mapstructure:"install_dir" json:"install_dir"`
	// InstallerName is the {name} placeholder of InstallerURL.
	InstallerName string   `yaml:"installer_name" mapstructure:"installer_name" json:"installer_name"`
	InstallerURL  string   `yaml:"installer_url" mapstructure:"installer_url" json:"installer_url"`
	Minimum       string   `yaml:"minimum" mapstructure:"minimum" json:"minimum"`
	BuildTools    []string `yaml:"build_tools" mapstructure:"build_tools" json:"build_tools"`
}

// VenvConfig drives the venv front-end.
type VenvConfig struct {
	EnvName    string   `yaml:"env_name" mapstructure:"env_name" json:"env_name"`
	EnvDir     string   `yaml:"env_dir" mapstructure:"env_dir" json:"env_dir"`
	Manifest   string   `yaml:"manifest" mapstructure:"manifest" json:"manifest"`
	Executable string   `yaml:"executable" mapstructure:"executable" json:"executable"`
	Generic    string   `yaml:"generic" mapstructure:"generic" json:"generic"`
	Candidates []string `yaml:"candidates" mapstructure:"candidates" json:"candidates"`
	Minimum    string   `yaml:"minimum" mapstructure:"minimum" json:"minimum"`
	Prebuilt   []string `yaml:"prebuilt" mapstructure:"prebuilt" json:"prebuilt"`
	BuildTools []string `yaml:"build_tools" mapstructure:"build_tools" json:"build_tools"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Conda: CondaConfig{
			EnvName:       "clr3",
			Manifest:      "environment.yml",
			InstallerName: "Miniconda3",
			InstallerURL:  "https://repo.anaconda.com/miniconda/{name}-latest-{os}-{arch}.{ext}",
			Minimum:       "4.6",
			BuildTools:    []string{},
		},
		Venv: VenvConfig{
			EnvName:    "clr3",
			EnvDir:     "../venvs",
			Manifest:   "requirements.txt",
			Executable: "python",
			Generic:    "python3",
			Candidates: []string{"3.9", "3.8", "3.7", "3.6"},
			Minimum:    "3.6",
			Prebuilt:   []string{"3.6"},
			BuildTools: []string{"compiler", "java"},
		},
	}
}

// LoadOptions selects the config file. ConfigFilePath, when set, is used
// exclusively and must exist; otherwise the first existing SearchPaths entry
// is read and a missing file means defaults.
type LoadOptions struct {
	ConfigFilePath string
	SearchPaths    []string
}

// Load merges defaults, the config file and ENVSETUP_* variables. It returns
// the path of the file read, or "" when none was found.
func Load(ctx context.Context, opts LoadOptions) (Config, string, error) {
	select {
	case <-ctx.Done():
		return Config{}, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolved := ""
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return Config{}, "", issue.New(issue.KindUnknown, "load configuration", errors.New("config file not found")).
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the --config path is correct").
				WithSuggestion("Run 'envsetup config init' to write a default config file")
		}
		resolved = opts.ConfigFilePath
	} else {
		for _, candidate := range opts.SearchPaths {
			if candidate != "" && fileExists(candidate) {
				resolved = candidate
				break
			}
		}
	}

	if resolved != "" {
		v.SetConfigFile(resolved)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, "", issue.New(issue.KindUnknown, "load configuration", err).
				WithResource(resolved).
				WithSuggestion("Check that the file contains valid YAML").
				WithSuggestion("Compare with the output of 'envsetup config show'")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, "", fmt.Errorf("parse config: %w", err)
	}
	return cfg, resolved, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("assume_yes", d.AssumeYes)
	v.SetDefault("log.dir", d.Log.Dir)

	v.SetDefault("conda.env_name", d.Conda.EnvName)
	v.SetDefault("conda.manifest", d.Conda.Manifest)
	v.SetDefault("conda.install_dir", d.Conda.InstallDir)
	v.SetDefault("conda.installer_name", d.Conda.InstallerName)
	v.SetDefault("conda.installer_url", d.Conda.InstallerURL)
	v.SetDefault("conda.minimum", d.Conda.Minimum)
	v.SetDefault("conda.build_tools", d.Conda.BuildTools)

	v.SetDefault("venv.env_name", d.Venv.EnvName)
	v.SetDefault("venv.env_dir", d.Venv.EnvDir)
	v.SetDefault("venv.manifest", d.Venv.Manifest)
	v.SetDefault("venv.executable", d.Venv.Executable)
	v.SetDefault("venv.generic", d.Venv.Generic)
	v.SetDefault("venv.candidates", d.Venv.Candidates)
	v.SetDefault("venv.minimum", d.Venv.Minimum)
	v.SetDefault("venv.prebuilt", d.Venv.Prebuilt)
	v.SetDefault("venv.build_tools", d.Venv.BuildTools)
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
