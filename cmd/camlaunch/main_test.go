package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAttr(t *testing.T, dir, name, value string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(value+"\n"), 0o644))
}

// sysfsFixture lays out a webcam (1-1) and a hub (1-2).
func sysfsFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	cam := filepath.Join(root, "1-1")
	writeAttr(t, cam, "idVendor", "046d")
	writeAttr(t, cam, "idProduct", "0825")
	writeAttr(t, cam, "busnum", "1")
	writeAttr(t, cam, "devnum", "4")
	writeAttr(t, filepath.Join(cam, "1-1:1.0"), "bInterfaceClass", "0e")
	writeAttr(t, filepath.Join(cam, "1-1:1.0"), "bInterfaceSubClass", "01")

	hub := filepath.Join(root, "1-2")
	writeAttr(t, hub, "idVendor", "05e3")
	writeAttr(t, hub, "idProduct", "0608")
	writeAttr(t, filepath.Join(hub, "1-2:1.0"), "bInterfaceClass", "09")
	return root
}

func writeConfig(t *testing.T, sysfsRoot string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[detection]\nsysfs_root = \"" + sysfsRoot + "\"\n\n[launch]\ncommand = \"true\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootConfigPath = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestDevicesCommand(t *testing.T) {
	cfgPath := writeConfig(t, sysfsFixture(t))

	out, err := execute(t, "--config", cfgPath, "devices", "--verbose")
	require.NoError(t, err)

	assert.Contains(t, out, "* /dev/bus/usb/001/004 (VID:046d PID:0825)")
	assert.Contains(t, out, "rule=uvc-interface")
	assert.Contains(t, out, "  1-2 (VID:05e3 PID:0608)")
}

func TestCheckCommand(t *testing.T) {
	cfgPath := writeConfig(t, sysfsFixture(t))

	out, err := execute(t, "--config", cfgPath, "check")
	require.NoError(t, err)

	assert.Contains(t, out, "2 device(s), 1 camera(s)")
	assert.Contains(t, out, "would launch: source=camera_detection devices=[1133:2085]")
	assert.Contains(t, out, "arrived 1133:2085")
}

func TestInitCommand_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camlaunch", "config.toml")

	out, err := execute(t, "--config", path, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created config at "+path)

	_, err = execute(t, "--config", path, "init")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "camlaunch dev\n", out)
}
