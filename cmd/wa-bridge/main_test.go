// ABOUTME: Shared test setup for wa-bridge command tests
// ABOUTME: Disables color so output assertions see plain text

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestGetConfigPath(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		t.Setenv("WA_BRIDGE_CONFIG", "/etc/wa-bridge.yaml")
		assert.Equal(t, "/etc/wa-bridge.yaml", getConfigPath())
	})

	t.Run("xdg config home", func(t *testing.T) {
		t.Setenv("WA_BRIDGE_CONFIG", "")
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
		assert.Equal(t, filepath.Join("/tmp/xdg", "wa-bridge", "config.yaml"), getConfigPath())
	})
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "init", "send", "health", "logout"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, root.RunE, "bare wa-bridge should serve")
}
