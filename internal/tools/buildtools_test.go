package tools_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"envsetup/internal/issue"
	"envsetup/internal/tools"
	"envsetup/internal/tools/toolstest"
)

func TestCheckBuildToolsSkippedForPrebuilt(t *testing.T) {
	runner := toolstest.New()
	binding := tools.ToolchainBinding{Tool: "python", SelectedVersion: "3.6"}

	report := tools.CheckBuildTools(runner, binding, []string{"3.6"}, []string{"compiler", "java"})
	assert.True(t, report.Skipped)
	assert.True(t, report.OK())
	assert.Empty(t, report.Checks)
}

func TestCheckBuildToolsWarnsIndependently(t *testing.T) {
	tools.SetHostOS(t, "linux")
	runner := toolstest.New().Install("gcc", "/usr/bin/gcc")
	binding := tools.ToolchainBinding{Tool: "python", SelectedVersion: "3.9"}

	report := tools.CheckBuildTools(runner, binding, []string{"3.6"}, []string{"compiler", "java"})
	require.False(t, report.Skipped)
	require.Len(t, report.Checks, 2)
	assert.True(t, report.Checks[0].Available)
	assert.Equal(t, "/usr/bin/gcc", report.Checks[0].Path)
	assert.False(t, report.Checks[1].Available)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, issue.KindBuildToolMissing, issue.KindOf(report.Warnings[0]))
	assert.False(t, issue.IsFatal(issue.KindOf(report.Warnings[0])))
	assert.Contains(t, issue.Describe(report.Warnings[0]), "default-jdk")
}

func TestCheckBuildToolsEmptyList(t *testing.T) {
	report := tools.CheckBuildTools(toolstest.New(), tools.ToolchainBinding{Tool: "conda", SelectedVersion: "23.7"}, nil, nil)
	assert.False(t, report.Skipped)
	assert.True(t, report.OK())
	assert.Empty(t, report.Checks)
}

func TestProbe(t *testing.T) {
	tools.SetHostOS(t, "linux")
	runner := toolstest.New().
		Install("curl", "/usr/bin/curl").
		Install("pip", "/usr/bin/pip").
		Version("pip", "pip 23.0.1 from /usr/lib/python3/dist-packages/pip (python 3.11)")

	infos := tools.Probe(context.Background(), runner, []string{"curl", "wget"}, false)
	require.Len(t, infos, 2)
	assert.True(t, infos[0].Available)
	assert.False(t, infos[1].Available)
	assert.Equal(t, "not found", infos[1].Error)

	infos = tools.Probe(context.Background(), runner, []string{"pip"}, true)
	assert.Equal(t, "23.0.1", infos[0].Version)
}
