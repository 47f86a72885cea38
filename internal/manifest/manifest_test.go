package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

const metadataOK = `
[lumo]
version = [1, 1, 0]

[files]
hardware = "hardware.toml"
recording = "recording.toml"
events = "events.toml"

[[files.intensity]]
file = "intensity_002.bin"
start_time = 30.0

[[files.intensity]]
file = "intensity_001.bin"
start_time = 0
`

func writeContainer(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, MetadataFile, metadataOK)
	writeFile(t, dir, "hardware.toml", "[hub]\n")
	writeFile(t, dir, "recording.toml", "[recording]\n")
	writeFile(t, dir, "events.toml", "")
	writeFile(t, dir, "intensity_001.bin", "")
	writeFile(t, dir, "intensity_002.bin", "")
	return dir
}

func TestDiscover(t *testing.T) {
	dir := writeContainer(t)

	m, err := Discover(dir)
	require.NoError(t, err)

	require.Equal(t, [3]int{1, 1, 0}, m.Version)
	require.Equal(t, filepath.Join(dir, "hardware.toml"), m.HardwarePath)
	require.Equal(t, filepath.Join(dir, "recording.toml"), m.RecordingPath)
	require.Equal(t, filepath.Join(dir, "events.toml"), m.EventsPath)
	require.Empty(t, m.LayoutPath)
	require.NotNil(t, m.Hardware)
	require.NotNil(t, m.Recording)
}

// Chunks must come back ordered by declared start time, regardless of the
// order they are listed in.
func TestDiscoverOrdersChunks(t *testing.T) {
	dir := writeContainer(t)

	m, err := Discover(dir)
	require.NoError(t, err)

	require.Len(t, m.Chunks, 2)
	require.Equal(t, filepath.Join(dir, "intensity_001.bin"), m.Chunks[0].Path)
	require.Equal(t, 0.0, m.Chunks[0].StartTime)
	require.Equal(t, filepath.Join(dir, "intensity_002.bin"), m.Chunks[1].Path)
	require.Equal(t, 30.0, m.Chunks[1].StartTime)
}

func TestDiscoverNotAContainer(t *testing.T) {
	_, err := Discover(t.TempDir())
	require.ErrorIs(t, err, ErrNotLumoDir)
}

func TestDiscoverMetadataNotTOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, MetadataFile, "{ not toml }")
	_, err := Discover(dir)
	require.ErrorIs(t, err, ErrNotLumoDir)
}

func TestDiscoverMissingReferencedFile(t *testing.T) {
	dir := writeContainer(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "intensity_002.bin")))

	_, err := Discover(dir)
	require.ErrorIs(t, err, ErrMissingFile)
	require.Contains(t, err.Error(), "intensity_002.bin")
}

func TestDiscoverMissingRequiredField(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, MetadataFile, "[lumo]\nversion = [1, 0, 0]\n\n[files]\nrecording = \"recording.toml\"\n")
	writeFile(t, dir, "recording.toml", "")

	_, err := Discover(dir)
	require.ErrorIs(t, err, ErrMissingField)
	require.Contains(t, err.Error(), "files.hardware")
}

func TestDiscoverBadVersion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, MetadataFile, "[lumo]\nversion = [1, 0]\n")

	_, err := Discover(dir)
	require.ErrorIs(t, err, ErrBadField)
}

// A version that is present but not an array is a type error, not a missing
// field.
func TestDiscoverMistypedVersion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, MetadataFile, "[lumo]\nversion = \"1.0.0\"\n")

	_, err := Discover(dir)
	require.ErrorIs(t, err, ErrBadField)
	require.NotErrorIs(t, err, ErrMissingField)
}

func TestDiscoverAbsentVersion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, MetadataFile, "[lumo]\n")

	_, err := Discover(dir)
	require.ErrorIs(t, err, ErrMissingField)
}
