// Package manifest locates and validates a lumo container directory.
//
// The container is a directory whose entry point is metadata.toml. The
// metadata names the format version, the hardware and recording description
// tables, the optional layout and event files, and the ordered list of
// binary intensity chunks. Discovery verifies that every referenced file
// exists and loads the description tables; it performs no interpretation of
// their contents beyond that.
package manifest

import (
	"os"
	"path/filepath"
	"sort"

	toml "github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// MetadataFile is the container entry point, always at the directory root.
const MetadataFile = "metadata.toml"

// Errors returned during discovery.
var (
	ErrNotLumoDir   = errors.New("not a lumo container")
	ErrMissingFile  = errors.New("referenced file missing from container")
	ErrMissingField = errors.New("required metadata field missing")
	ErrBadField     = errors.New("metadata field has unexpected type")
)

// ChunkRef identifies one intensity chunk file and its chronological key.
type ChunkRef struct {
	Path      string  // absolute path inside the container
	StartTime float64 // seconds since recording start, as declared
}

// Manifest is the validated view of a container directory.
type Manifest struct {
	Dir     string
	Version [3]int

	HardwarePath  string
	RecordingPath string
	LayoutPath    string // empty when the container carries no layout
	EventsPath    string // empty when the container carries no event log

	// Chunks is ordered ascending by declared start time. Ties keep the
	// declared order.
	Chunks []ChunkRef

	// Loaded description tables, handed to the enumeration builder as
	// generic mapping structures.
	Hardware  *toml.Tree
	Recording *toml.Tree
}

// Discover validates the container at dir and returns its manifest.
func Discover(dir string) (*Manifest, error) {
	metaPath := filepath.Join(dir, MetadataFile)
	tree, err := toml.LoadFile(metaPath)
	if err != nil {
		return nil, errors.Wrapf(ErrNotLumoDir, "%s: %v", metaPath, err)
	}

	m := &Manifest{Dir: dir}

	if m.Version, err = versionTriple(tree, "lumo.version"); err != nil {
		return nil, err
	}

	files, ok := tree.Get("files").(*toml.Tree)
	if !ok {
		return nil, errors.Wrap(ErrMissingField, "files")
	}

	if m.HardwarePath, err = resolveRequired(dir, files, "hardware"); err != nil {
		return nil, err
	}
	if m.RecordingPath, err = resolveRequired(dir, files, "recording"); err != nil {
		return nil, err
	}
	if m.LayoutPath, err = resolveOptional(dir, files, "layout"); err != nil {
		return nil, err
	}
	if m.EventsPath, err = resolveOptional(dir, files, "events"); err != nil {
		return nil, err
	}

	if m.Chunks, err = chunkRefs(dir, files); err != nil {
		return nil, err
	}

	if m.Hardware, err = toml.LoadFile(m.HardwarePath); err != nil {
		return nil, errors.Wrapf(err, "loading hardware table %s", m.HardwarePath)
	}
	if m.Recording, err = toml.LoadFile(m.RecordingPath); err != nil {
		return nil, errors.Wrapf(err, "loading recording table %s", m.RecordingPath)
	}

	return m, nil
}

// versionTriple reads a [major, minor, patch] integer array.
func versionTriple(tree *toml.Tree, key string) ([3]int, error) {
	var v [3]int
	rawVal := tree.Get(key)
	if rawVal == nil {
		return v, errors.Wrap(ErrMissingField, key)
	}
	raw, ok := rawVal.([]interface{})
	if !ok {
		return v, errors.Wrapf(ErrBadField, "%s: not an array", key)
	}
	if len(raw) != 3 {
		return v, errors.Wrapf(ErrBadField, "%s: want 3 elements, got %d", key, len(raw))
	}
	for i, e := range raw {
		n, ok := e.(int64)
		if !ok {
			return v, errors.Wrapf(ErrBadField, "%s[%d]: not an integer", key, i)
		}
		v[i] = int(n)
	}
	return v, nil
}

// resolveRequired reads a file-name field and verifies the file exists.
func resolveRequired(dir string, files *toml.Tree, key string) (string, error) {
	name, ok := files.Get(key).(string)
	if !ok {
		return "", errors.Wrapf(ErrMissingField, "files.%s", key)
	}
	return checkExists(dir, name)
}

// resolveOptional is resolveRequired for fields that may be absent entirely,
// but whose referenced file must exist when they are present.
func resolveOptional(dir string, files *toml.Tree, key string) (string, error) {
	raw := files.Get(key)
	if raw == nil {
		return "", nil
	}
	name, ok := raw.(string)
	if !ok {
		return "", errors.Wrapf(ErrBadField, "files.%s: not a string", key)
	}
	return checkExists(dir, name)
}

func checkExists(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", errors.Wrapf(ErrMissingFile, "%s: %v", name, err)
	}
	return path, nil
}

// chunkRefs reads the [[files.intensity]] entries and orders them by their
// declared start time.
func chunkRefs(dir string, files *toml.Tree) ([]ChunkRef, error) {
	raw := files.Get("intensity")
	if raw == nil {
		return nil, errors.Wrap(ErrMissingField, "files.intensity")
	}
	entries, ok := raw.([]*toml.Tree)
	if !ok {
		return nil, errors.Wrap(ErrBadField, "files.intensity: not a table array")
	}

	refs := make([]ChunkRef, 0, len(entries))
	for i, e := range entries {
		name, ok := e.Get("file").(string)
		if !ok {
			return nil, errors.Wrapf(ErrMissingField, "files.intensity[%d].file", i)
		}
		path, err := checkExists(dir, name)
		if err != nil {
			return nil, err
		}
		start, err := floatField(e, "start_time")
		if err != nil {
			return nil, errors.Wrapf(err, "files.intensity[%d]", i)
		}
		refs = append(refs, ChunkRef{Path: path, StartTime: start})
	}

	sort.SliceStable(refs, func(i, j int) bool { return refs[i].StartTime < refs[j].StartTime })
	return refs, nil
}

// floatField reads a numeric field, accepting either TOML float or integer.
func floatField(tree *toml.Tree, key string) (float64, error) {
	switch v := tree.Get(key).(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case nil:
		return 0, errors.Wrap(ErrMissingField, key)
	default:
		return 0, errors.Wrapf(ErrBadField, "%s: not a number", key)
	}
}
