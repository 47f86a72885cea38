package lumo

import (
	"math"
	"sort"

	toml "github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/opennirs/lumofile/internal/topo"
)

// Hub describes the recording controller. Every field is optional; an
// absent field is left at its zero value.
type Hub struct {
	FirmwareVersion string
	HardwareVersion string
	SerialNumber    string
	HardwareUID     string
}

// Optode is one physical connector position on a tile.
type Optode struct {
	Index int    // 1..7
	Name  string // "0".."3" for detector positions, "A".."C" for source positions
	Role  string // "source" or "detector"
}

// Source is one emitter at a fixed wavelength.
type Source struct {
	LocalIndex   int     // 1..6
	WavelengthNm float64 // 735 or 850
	OptodeIndex  int     // owning optode, 5..7
	Power        float64 // declared emitter power, as reported
}

// Detector is one sensor.
type Detector struct {
	LocalIndex  int // 1..4, one-to-one with the physical ADC channel
	OptodeIndex int // owning optode, 1..4
}

// Node is one physical tile in canonical order.
type Node struct {
	ID              int // declared hardware ID, unique, used for layout linkage
	UID             string
	Revision        int // -1 when the tile did not report one
	FirmwareVersion string

	Sources   [topo.SourcesPerTile]Source
	Detectors [topo.DetectorsPerTile]Detector
	Optodes   [topo.OptodesPerTile]Optode
}

// Channel is one measured source-detector pair. Node indices are 0-based
// positions in the canonical node sequence; local indices are 1-based.
type Channel struct {
	SrcNodeIdx int
	SrcIdx     int
	DetNodeIdx int
	DetIdx     int
}

// Group is one connected cap instance. Containers carry exactly one.
type Group struct {
	UID      string
	Nodes    []Node
	Channels []Channel
}

// Enumeration is the canonical, hardware-independent description of the
// device topology. It is immutable once returned.
type Enumeration struct {
	Hub    Hub
	Groups []Group
}

// dataParams are the derived stream parameters the intensity decoder needs.
type dataParams struct {
	channelCount int
	frameCount   int
	frameRate    float64
}

// Global index maps, keyed by the hub's flat numbering. Built during tile
// construction, consumed by channel resolution, then discarded.
type srcKey struct {
	global int // global source index
	slot   int // wavelength slot, 1 or 2
}

type localRef struct {
	node  int // 0-based canonical node position
	local int // 1-based tile-local index
}

// buildEnumeration translates the decoded hardware and recording tables into
// the canonical enumeration plus derived stream parameters. Any structural
// or consistency violation aborts the build; no partial enumeration is
// returned.
func buildEnumeration(hw, rec *toml.Tree) (*Enumeration, dataParams, error) {
	var none dataParams

	hub, err := decodeHub(hw)
	if err != nil {
		return nil, none, err
	}

	groups, err := subTrees(hw, "group")
	if err != nil {
		return nil, none, err
	}
	if len(groups) != 1 {
		return nil, none, errors.Wrapf(ErrMultipleGroups, "container declares %d groups", len(groups))
	}

	group, srcMap, detMap, err := buildGroup(groups[0])
	if err != nil {
		return nil, none, err
	}

	if err := checkDescriptor(rec, group.Nodes, srcMap, detMap); err != nil {
		return nil, none, err
	}

	if group.Channels, err = resolveChannels(rec, srcMap, detMap); err != nil {
		return nil, none, err
	}

	params := dataParams{channelCount: len(group.Channels)}
	frames, err := reqInt(rec, "recording.frame_count")
	if err != nil {
		return nil, none, err
	}
	// The declared frame count sizes the intensity matrix; reject values
	// that cannot describe a real recording before anything is allocated.
	if frames < 0 {
		return nil, none, errors.Wrapf(ErrBadField, "recording.frame_count: negative value %d", frames)
	}
	if params.channelCount > 0 && frames > int64(math.MaxInt/4/params.channelCount) {
		return nil, none, errors.Wrapf(ErrBadField,
			"recording.frame_count: %d frames for %d channels exceeds the addressable matrix size",
			frames, params.channelCount)
	}
	params.frameCount = int(frames)
	if params.frameRate, err = reqFloat(rec, "recording.frame_rate"); err != nil {
		return nil, none, err
	}

	return &Enumeration{Hub: hub, Groups: []Group{*group}}, params, nil
}

// decodeHub copies the present hub fields. The empty string is the absent
// sentinel and is simply carried through, never defaulted.
func decodeHub(hw *toml.Tree) (Hub, error) {
	var hub Hub
	t, err := optTree(hw, "hub")
	if err != nil || t == nil {
		return hub, err
	}
	if hub.FirmwareVersion, err = optString(t, "firmware_version"); err != nil {
		return hub, err
	}
	if hub.HardwareVersion, err = optString(t, "hardware_version"); err != nil {
		return hub, err
	}
	if hub.SerialNumber, err = optString(t, "serial_number"); err != nil {
		return hub, err
	}
	if hub.HardwareUID, err = optString(t, "hardware_uid"); err != nil {
		return hub, err
	}
	return hub, nil
}

// buildGroup constructs the canonical node sequence and the global index
// maps. Tiles are sorted ascending by declared hardware ID; the position in
// that order is the node index used everywhere else.
func buildGroup(gt *toml.Tree) (*Group, map[srcKey]localRef, map[int]localRef, error) {
	uid, err := optString(gt, "uid")
	if err != nil {
		return nil, nil, nil, err
	}
	group := &Group{UID: uid}

	rawNodes, err := subTrees(gt, "node")
	if err != nil {
		return nil, nil, nil, err
	}

	type declared struct {
		id   int64
		tree *toml.Tree
	}
	decls := make([]declared, 0, len(rawNodes))
	for i, nt := range rawNodes {
		id, err := reqInt(nt, "id")
		if err != nil {
			return nil, nil, nil, errors.Wrapf(err, "node[%d]", i)
		}
		decls = append(decls, declared{id: id, tree: nt})
	}
	sort.SliceStable(decls, func(i, j int) bool { return decls[i].id < decls[j].id })

	srcMap := make(map[srcKey]localRef)
	detMap := make(map[int]localRef)

	for pos, d := range decls {
		node, err := buildNode(pos, int(d.id), d.tree, srcMap, detMap)
		if err != nil {
			return nil, nil, nil, err
		}
		group.Nodes = append(group.Nodes, node)
	}

	// Re-verify strict monotonic ordering. A repeated ID means the group
	// declared the same tile twice; out-of-order IDs mean the sort above
	// was bypassed and the enumeration cannot be trusted.
	for i := 1; i < len(group.Nodes); i++ {
		if group.Nodes[i-1].ID == group.Nodes[i].ID {
			return nil, nil, nil, errors.Wrapf(ErrInternalOrdering, "duplicate tile id %d", group.Nodes[i].ID)
		}
		if group.Nodes[i-1].ID > group.Nodes[i].ID {
			return nil, nil, nil, errors.Wrapf(ErrInternalOrdering,
				"tile %d follows tile %d", group.Nodes[i].ID, group.Nodes[i-1].ID)
		}
	}

	return group, srcMap, detMap, nil
}

// buildNode decodes one tile's source and detector records and registers its
// entries in the global index maps. pos is the tile's 0-based canonical
// position, which anchors its block of global indices.
func buildNode(pos, id int, nt *toml.Tree, srcMap map[srcKey]localRef, detMap map[int]localRef) (Node, error) {
	node := Node{ID: id}

	var err error
	if node.UID, err = optString(nt, "uid"); err != nil {
		return node, err
	}
	rev, err := optInt(nt, "revision", -1)
	if err != nil {
		return node, err
	}
	node.Revision = int(rev)
	if node.FirmwareVersion, err = optString(nt, "firmware_version"); err != nil {
		return node, err
	}

	if err := buildSources(pos, id, nt, &node, srcMap); err != nil {
		return node, err
	}
	if err := buildDetectors(pos, id, nt, &node, detMap); err != nil {
		return node, err
	}

	if node.Optodes, err = deriveOptodes(id, &node.Sources, &node.Detectors); err != nil {
		return node, err
	}

	return node, nil
}

func buildSources(pos, id int, nt *toml.Tree, node *Node, srcMap map[srcKey]localRef) error {
	raw, err := subTrees(nt, "source")
	if err != nil {
		return err
	}
	if len(raw) != topo.SourcesPerTile {
		return errors.Wrapf(ErrSourceEnumeration, "tile %d declares %d sources, want %d",
			id, len(raw), topo.SourcesPerTile)
	}

	var placed [topo.SourcesPerTile]bool
	for i, st := range raw {
		hwid, err := reqInt(st, "id")
		if err != nil {
			return errors.Wrapf(err, "tile %d source[%d]", id, i)
		}
		desc, err := topo.Source(hwid)
		if err != nil {
			return errors.Wrapf(err, "tile %d source[%d]", id, i)
		}

		// The declared description, when present, must agree with the
		// wiring table for this hardware ID.
		decl, err := optString(st, "description")
		if err != nil {
			return errors.Wrapf(err, "tile %d source[%d]", id, i)
		}
		if decl != "" && decl != desc.Description {
			return errors.Wrapf(ErrSourceEnumeration,
				"tile %d source id 0x%02x described as %q, want %q", id, hwid, decl, desc.Description)
		}

		power, err := optFloat(st, "power", 0)
		if err != nil {
			return errors.Wrapf(err, "tile %d source[%d]", id, i)
		}

		if placed[desc.LocalIndex-1] {
			return errors.Wrapf(ErrSourceEnumeration, "tile %d: duplicate source index %d", id, desc.LocalIndex)
		}
		placed[desc.LocalIndex-1] = true
		node.Sources[desc.LocalIndex-1] = Source{
			LocalIndex:   desc.LocalIndex,
			WavelengthNm: desc.WavelengthNm,
			OptodeIndex:  desc.OptodeIndex,
			Power:        power,
		}

		// Optode indices 5..7 map to source positions 1..3 within the
		// tile's block of global source indices.
		key := srcKey{
			global: pos*topo.SourceOptodesPerTile + desc.OptodeIndex - topo.DetectorsPerTile,
			slot:   desc.WavelengthSlot,
		}
		if _, dup := srcMap[key]; dup {
			return errors.Wrapf(ErrSourceEnumeration,
				"tile %d: duplicate global source entry (%d, slot %d)", id, key.global, key.slot)
		}
		srcMap[key] = localRef{node: pos, local: desc.LocalIndex}
	}
	return nil
}

func buildDetectors(pos, id int, nt *toml.Tree, node *Node, detMap map[int]localRef) error {
	raw, err := subTrees(nt, "detector")
	if err != nil {
		return err
	}
	if len(raw) != topo.DetectorsPerTile {
		return errors.Wrapf(ErrDetectorEnumeration, "tile %d declares %d detectors, want %d",
			id, len(raw), topo.DetectorsPerTile)
	}

	var placed [topo.DetectorsPerTile]bool
	for i, dt := range raw {
		hwid, err := reqInt(dt, "id")
		if err != nil {
			return errors.Wrapf(err, "tile %d detector[%d]", id, i)
		}
		desc, err := topo.Detector(hwid)
		if err != nil {
			return errors.Wrapf(err, "tile %d detector[%d]", id, i)
		}

		if placed[desc.LocalIndex-1] {
			return errors.Wrapf(ErrDetectorEnumeration, "tile %d: duplicate detector index %d", id, desc.LocalIndex)
		}
		placed[desc.LocalIndex-1] = true
		node.Detectors[desc.LocalIndex-1] = Detector{
			LocalIndex:  desc.LocalIndex,
			OptodeIndex: desc.OptodeIndex,
		}

		global := pos*topo.DetectorsPerTile + desc.LocalIndex
		if _, dup := detMap[global]; dup {
			return errors.Wrapf(ErrDetectorEnumeration, "tile %d: duplicate global detector index %d", id, global)
		}
		detMap[global] = localRef{node: pos, local: desc.LocalIndex}
	}
	return nil
}

// deriveOptodes checks that the union of source- and detector-owning optode
// indices is exactly 1..7 with no position claimed by both, then
// materializes the seven descriptors.
func deriveOptodes(id int, sources *[topo.SourcesPerTile]Source, detectors *[topo.DetectorsPerTile]Detector) ([topo.OptodesPerTile]Optode, error) {
	var optodes [topo.OptodesPerTile]Optode
	var bySource, byDetector [topo.OptodesPerTile + 1]bool

	for _, s := range sources {
		if s.OptodeIndex < 1 || s.OptodeIndex > topo.OptodesPerTile {
			return optodes, errors.Wrapf(ErrOptodeEnumeration, "tile %d: source optode %d out of range", id, s.OptodeIndex)
		}
		bySource[s.OptodeIndex] = true
	}
	for _, d := range detectors {
		if d.OptodeIndex < 1 || d.OptodeIndex > topo.OptodesPerTile {
			return optodes, errors.Wrapf(ErrOptodeEnumeration, "tile %d: detector optode %d out of range", id, d.OptodeIndex)
		}
		byDetector[d.OptodeIndex] = true
	}

	for i := 1; i <= topo.OptodesPerTile; i++ {
		if bySource[i] && byDetector[i] {
			return optodes, errors.Wrapf(ErrOptodeEnumeration, "tile %d: optode %d claimed by both a source and a detector", id, i)
		}
		if !bySource[i] && !byDetector[i] {
			return optodes, errors.Wrapf(ErrOptodeEnumeration, "tile %d: optode %d not covered", id, i)
		}
		desc, err := topo.Optode(i)
		if err != nil {
			return optodes, errors.Wrapf(err, "tile %d", id)
		}
		optodes[i-1] = Optode{Index: i, Name: desc.Name, Role: desc.Role.String()}
	}
	return optodes, nil
}

// checkDescriptor verifies the recording descriptor against the enumerated
// topology: node-ID set (order-independent), global map sizes, and the
// wavelength set, which the wavelength-slot indexing depends on.
func checkDescriptor(rec *toml.Tree, nodes []Node, srcMap map[srcKey]localRef, detMap map[int]localRef) error {
	declared, err := reqIntSlice(rec, "variables.nodes")
	if err != nil {
		return err
	}
	if len(declared) != len(nodes) {
		return errors.Wrapf(ErrDescriptorMismatch, "descriptor declares %d nodes, enumerated %d",
			len(declared), len(nodes))
	}
	declaredSet := make(map[int]bool, len(declared))
	for _, id := range declared {
		declaredSet[int(id)] = true
	}
	for _, n := range nodes {
		if !declaredSet[n.ID] {
			return errors.Wrapf(ErrDescriptorMismatch, "tile %d not in descriptor node list", n.ID)
		}
	}

	wavelengths, err := reqFloatSlice(rec, "variables.wavelength")
	if err != nil {
		return err
	}
	if !wavelengthSetValid(wavelengths) {
		return errors.Wrapf(ErrDescriptorMismatch, "wavelength set %v, want {735, 850}", wavelengths)
	}

	srcCount, err := reqInt(rec, "variables.source_count")
	if err != nil {
		return err
	}
	if int(srcCount)*topo.WavelengthCount != len(srcMap) {
		return errors.Wrapf(ErrDescriptorMismatch, "descriptor declares %d sources, enumerated %d global entries",
			srcCount, len(srcMap))
	}

	detCount, err := reqInt(rec, "variables.detector_count")
	if err != nil {
		return err
	}
	if int(detCount) != len(detMap) {
		return errors.Wrapf(ErrDescriptorMismatch, "descriptor declares %d detectors, enumerated %d",
			detCount, len(detMap))
	}

	return nil
}

func wavelengthSetValid(ws []float64) bool {
	if len(ws) != topo.WavelengthCount {
		return false
	}
	var seen [topo.WavelengthCount]bool
	for _, w := range ws {
		match := false
		for i, want := range topo.Wavelengths {
			if w == want && !seen[i] {
				seen[i] = true
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	return true
}

// resolveChannels translates the descriptor's channel triples through the
// global index maps, preserving the declared order exactly.
func resolveChannels(rec *toml.Tree, srcMap map[srcKey]localRef, detMap map[int]localRef) ([]Channel, error) {
	ct, err := reqTree(rec, "channels")
	if err != nil {
		return nil, err
	}
	srcIdx, err := reqIntSlice(ct, "source_index")
	if err != nil {
		return nil, err
	}
	wlIdx, err := reqIntSlice(ct, "wavelength_index")
	if err != nil {
		return nil, err
	}
	detIdx, err := reqIntSlice(ct, "detector_index")
	if err != nil {
		return nil, err
	}
	if len(wlIdx) != len(srcIdx) || len(detIdx) != len(srcIdx) {
		return nil, errors.Wrapf(ErrDescriptorMismatch,
			"channel index arrays disagree: %d sources, %d wavelengths, %d detectors",
			len(srcIdx), len(wlIdx), len(detIdx))
	}

	channels := make([]Channel, 0, len(srcIdx))
	for k := range srcIdx {
		src, ok := srcMap[srcKey{global: int(srcIdx[k]), slot: int(wlIdx[k])}]
		if !ok {
			return nil, errors.Wrapf(ErrChannelResolution,
				"channel %d: global source %d slot %d not enumerated", k, srcIdx[k], wlIdx[k])
		}
		det, ok := detMap[int(detIdx[k])]
		if !ok {
			return nil, errors.Wrapf(ErrChannelResolution,
				"channel %d: global detector %d not enumerated", k, detIdx[k])
		}
		channels = append(channels, Channel{
			SrcNodeIdx: src.node,
			SrcIdx:     src.local,
			DetNodeIdx: det.node,
			DetIdx:     det.local,
		})
	}
	return channels, nil
}
