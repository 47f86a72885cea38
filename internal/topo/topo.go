// Package topo encodes the fixed physical wiring of one tile: six sources,
// four detectors, seven optodes, and their wavelength and position
// assignments.
//
// A tile carries seven optode positions. Positions 1-4 (named "0"-"3") host
// detectors; positions 5-7 (named "A"-"C") host sources. Each source optode
// carries two emitters, one per wavelength, so a tile has six sources in
// total. The descriptor functions below are pure lookups over the closed set
// of hardware identifiers the hub reports; an identifier outside that set is
// an error, never a default record.
//
// These tables describe the physical device and must not be altered without
// a hardware format revision.
package topo

import "github.com/pkg/errors"

// Per-tile cardinalities.
const (
	SourcesPerTile   = 6
	DetectorsPerTile = 4
	OptodesPerTile   = 7

	// SourceOptodesPerTile is the number of source-hosting optode
	// positions; each hosts one emitter per wavelength slot.
	SourceOptodesPerTile = 3
)

// WavelengthCount is the number of wavelength slots per source optode.
const WavelengthCount = 2

// Wavelengths holds the emitter wavelengths in nanometres, indexed by
// wavelength slot minus one.
var Wavelengths = [WavelengthCount]float64{735, 850}

// Errors returned by the descriptor lookups.
var (
	ErrBadOptodeIndex    = errors.New("optode index out of range")
	ErrUnknownSourceID   = errors.New("unrecognized hardware source id")
	ErrUnknownDetectorID = errors.New("unrecognized hardware detector id")
)

// Role identifies what an optode position hosts.
type Role int

const (
	RoleDetector Role = iota
	RoleSource
)

func (r Role) String() string {
	if r == RoleSource {
		return "source"
	}
	return "detector"
}

// OptodeDesc is the fixed name and role of one optode position.
type OptodeDesc struct {
	Name string
	Role Role
}

// SourceDesc is the decoded identity of one emitter.
type SourceDesc struct {
	LocalIndex     int     // 1..6, position in the tile's source array
	WavelengthNm   float64 // 735 or 850
	WavelengthSlot int     // 1 or 2
	OptodeIndex    int     // 5..7, the owning optode position
	Description    string  // expected description string, cross-check only
}

// DetectorDesc is the decoded identity of one sensor.
type DetectorDesc struct {
	LocalIndex  int // 1..4, one-to-one with the physical ADC channel
	OptodeIndex int // 1..4, the owning optode position
}

// Optode returns the fixed descriptor for an optode position (1..7).
func Optode(index int) (OptodeDesc, error) {
	switch index {
	case 1:
		return OptodeDesc{Name: "0", Role: RoleDetector}, nil
	case 2:
		return OptodeDesc{Name: "1", Role: RoleDetector}, nil
	case 3:
		return OptodeDesc{Name: "2", Role: RoleDetector}, nil
	case 4:
		return OptodeDesc{Name: "3", Role: RoleDetector}, nil
	case 5:
		return OptodeDesc{Name: "A", Role: RoleSource}, nil
	case 6:
		return OptodeDesc{Name: "B", Role: RoleSource}, nil
	case 7:
		return OptodeDesc{Name: "C", Role: RoleSource}, nil
	default:
		return OptodeDesc{}, errors.Wrapf(ErrBadOptodeIndex, "index %d", index)
	}
}

// Source decodes a hardware source identifier. The six recognized values are
// bitmask style, one bit per emitter.
func Source(hardwareID int64) (SourceDesc, error) {
	switch hardwareID {
	case 0x01:
		return SourceDesc{LocalIndex: 1, WavelengthNm: 735, WavelengthSlot: 1, OptodeIndex: 5, Description: "SRC_A_735"}, nil
	case 0x02:
		return SourceDesc{LocalIndex: 2, WavelengthNm: 735, WavelengthSlot: 1, OptodeIndex: 6, Description: "SRC_B_735"}, nil
	case 0x04:
		return SourceDesc{LocalIndex: 3, WavelengthNm: 735, WavelengthSlot: 1, OptodeIndex: 7, Description: "SRC_C_735"}, nil
	case 0x08:
		return SourceDesc{LocalIndex: 4, WavelengthNm: 850, WavelengthSlot: 2, OptodeIndex: 5, Description: "SRC_A_850"}, nil
	case 0x10:
		return SourceDesc{LocalIndex: 5, WavelengthNm: 850, WavelengthSlot: 2, OptodeIndex: 6, Description: "SRC_B_850"}, nil
	case 0x20:
		return SourceDesc{LocalIndex: 6, WavelengthNm: 850, WavelengthSlot: 2, OptodeIndex: 7, Description: "SRC_C_850"}, nil
	default:
		return SourceDesc{}, errors.Wrapf(ErrUnknownSourceID, "id 0x%02x", hardwareID)
	}
}

// Detector decodes a hardware detector identifier.
func Detector(hardwareID int64) (DetectorDesc, error) {
	switch hardwareID {
	case 0x01:
		return DetectorDesc{LocalIndex: 1, OptodeIndex: 1}, nil
	case 0x02:
		return DetectorDesc{LocalIndex: 2, OptodeIndex: 2}, nil
	case 0x04:
		return DetectorDesc{LocalIndex: 3, OptodeIndex: 3}, nil
	case 0x08:
		return DetectorDesc{LocalIndex: 4, OptodeIndex: 4}, nil
	default:
		return DetectorDesc{}, errors.Wrapf(ErrUnknownDetectorID, "id 0x%02x", hardwareID)
	}
}
