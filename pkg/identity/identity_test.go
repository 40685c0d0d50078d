package identity_test

import (
	"path/filepath"
	"testing"

	"github.com/benmeehan/iot-dashboard/pkg/file"
	"github.com/benmeehan/iot-dashboard/pkg/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEnsureViewerID_GeneratesOnFirstRun tests that a missing identity
// file yields a fresh persisted ID.
func TestEnsureViewerID_GeneratesOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.json")
	fs := file.NewFileService()

	info := identity.NewViewerInfo(path, fs)
	require.NoError(t, info.EnsureViewerID())

	id := info.GetViewerID()
	assert.NotEmpty(t, id)
	assert.Contains(t, id, "viewer-")

	exists, err := fs.IsFileExists(path)
	require.NoError(t, err)
	assert.True(t, exists)
}

// TestEnsureViewerID_StableAcrossRuns tests that a second load returns
// the persisted ID instead of generating a new one.
func TestEnsureViewerID_StableAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.json")
	fs := file.NewFileService()

	first := identity.NewViewerInfo(path, fs)
	require.NoError(t, first.EnsureViewerID())

	second := identity.NewViewerInfo(path, fs)
	require.NoError(t, second.EnsureViewerID())

	assert.Equal(t, first.GetViewerID(), second.GetViewerID())
}
