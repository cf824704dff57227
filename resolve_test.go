package binsvc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
}

func TestValidBinaryName(t *testing.T) {
	valid := []string{"anticheat-core", "Core_2", "a", "UPPER", "0-9"}
	for _, name := range valid {
		require.True(t, validBinaryName(name), name)
	}

	invalid := []string{"", "has.exe", "bin/evil", `bin\evil`, "../up", "with space", "semi;colon"}
	for _, name := range invalid {
		require.False(t, validBinaryName(name), name)
	}
}

func TestResolvePlatformDirPreferred(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "bin", "linux", "svc"))
	touch(t, filepath.Join(root, "bin", "svc"))

	path, ok := resolveBinary(root, "linux", "svc")
	require.True(t, ok)
	require.Equal(t, filepath.Join(root, "bin", "linux", "svc"), path)
}

func TestResolveFallsBackToBin(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "bin", "svc"))

	path, ok := resolveBinary(root, "linux", "svc")
	require.True(t, ok)
	require.Equal(t, filepath.Join(root, "bin", "svc"), path)
}

func TestResolveWindowsAppendsExe(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "bin", "windows", "svc.exe"))

	path, ok := resolveBinary(root, "windows", "svc")
	require.True(t, ok)
	require.Equal(t, filepath.Join(root, "bin", "windows", "svc.exe"), path)

	// The bare name must not match on windows.
	touch(t, filepath.Join(root, "bin", "other"))
	_, ok = resolveBinary(root, "windows", "other")
	require.False(t, ok)
}

func TestResolveMissing(t *testing.T) {
	_, ok := resolveBinary(t.TempDir(), "linux", "ghost")
	require.False(t, ok)
}

func TestResolveSkipsDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bin", "svc"), 0o755))

	_, ok := resolveBinary(root, "linux", "svc")
	require.False(t, ok)
}
