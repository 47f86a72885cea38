// Package lumo provides a pure Go reader for the directory-based container
// produced by multi-tile optical brain-imaging devices.
package lumo

import (
	"github.com/pkg/errors"

	"github.com/opennirs/lumofile/internal/intensity"
	"github.com/opennirs/lumofile/internal/manifest"
	"github.com/opennirs/lumofile/internal/topo"
)

// Enumeration errors.
var (
	ErrMultipleGroups      = errors.New("multi-group containers are not supported")
	ErrInternalOrdering    = errors.New("canonical tile ordering violated")
	ErrSourceEnumeration   = errors.New("invalid source enumeration")
	ErrDetectorEnumeration = errors.New("invalid detector enumeration")
	ErrOptodeEnumeration   = errors.New("incomplete optode coverage")
	ErrDescriptorMismatch  = errors.New("recording descriptor inconsistent with enumeration")
	ErrChannelResolution   = errors.New("channel references an unknown global index")
)

// Configuration table errors.
var (
	ErrMissingField = errors.New("required configuration field missing")
	ErrBadField     = errors.New("configuration field has unexpected type")
)

// Facade errors.
var (
	ErrMemoryLimit    = errors.New("intensity matrix exceeds the configured memory limit")
	ErrFrameShortfall = errors.New("intensity stream covers fewer frames than declared")
	ErrBadEventTable  = errors.New("malformed event table")
	ErrBadLayoutTable = errors.New("malformed layout table")
)

// Errors surfaced from the container and stream layers, re-exported so
// callers can test against them without reaching into internal packages.
var (
	ErrNotLumoDir           = manifest.ErrNotLumoDir
	ErrMissingFile          = manifest.ErrMissingFile
	ErrMissingMetadataField = manifest.ErrMissingField
	ErrUnknownSourceID      = topo.ErrUnknownSourceID
	ErrUnknownDetectorID    = topo.ErrUnknownDetectorID
	ErrBadMagic             = intensity.ErrBadMagic
	ErrUnsupportedVersion   = intensity.ErrUnsupportedVersion
	ErrChannelCountMismatch = intensity.ErrChannelCountMismatch
	ErrBigEndian            = intensity.ErrBigEndian
	ErrFinality             = intensity.ErrFinality
	ErrFrameOverflow        = intensity.ErrFrameOverflow
)
