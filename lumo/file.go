package lumo

import (
	logging "github.com/op/go-logging"
	"github.com/pkg/errors"

	"github.com/opennirs/lumofile/internal/intensity"
	"github.com/opennirs/lumofile/internal/manifest"
)

var log = logging.MustGetLogger("lumofile")

// softMemoryWarn is the intensity matrix size above which a warning is
// logged even when no hard limit is configured.
const softMemoryWarn = 8 << 30

// Recording is the fully decoded content of one container.
type Recording struct {
	Dir           string
	FormatVersion [3]int

	Enumeration *Enumeration
	Data        *DataBlock // nil under WithoutIntensity
	Layout      *CapLayout // nil when the container carries no layout
	Events      []Event    // nil when the container carries no event log
}

// Load reads the container at dir: manifest validation, canonical
// enumeration, the optional layout and event tables, and the intensity
// stream. Every violation is fatal; the container is either fully decoded
// or rejected.
func Load(dir string, opts ...LoadOption) (*Recording, error) {
	cfg := defaultLoadOptions()
	for _, opt := range opts {
		opt(cfg)
	}

	m, err := manifest.Discover(dir)
	if err != nil {
		return nil, err
	}
	log.Infof("loading %s (format %d.%d.%d, %d intensity chunks)",
		dir, m.Version[0], m.Version[1], m.Version[2], len(m.Chunks))

	enum, params, err := buildEnumeration(m.Hardware, m.Recording)
	if err != nil {
		return nil, errors.Wrapf(err, "enumerating %s", dir)
	}
	log.Debugf("enumerated %d tiles, %d channels, %d frames at %g Hz",
		len(enum.Groups[0].Nodes), params.channelCount, params.frameCount, params.frameRate)

	rec := &Recording{
		Dir:           dir,
		FormatVersion: m.Version,
		Enumeration:   enum,
	}

	if m.LayoutPath != "" {
		if rec.Layout, err = readCapLayout(m.LayoutPath); err != nil {
			return nil, err
		}
		warnLayoutCoverage(rec.Layout, enum.Groups[0].Nodes)
	}
	if m.EventsPath != "" {
		if rec.Events, err = readEvents(m.EventsPath); err != nil {
			return nil, err
		}
	}

	if cfg.skipIntensity {
		return rec, nil
	}

	need := int64(params.channelCount) * int64(params.frameCount) * 4
	if cfg.memoryLimit > 0 && need > cfg.memoryLimit {
		return nil, errors.Wrapf(ErrMemoryLimit, "matrix needs %d bytes, limit %d", need, cfg.memoryLimit)
	}
	if need > softMemoryWarn {
		log.Warningf("intensity matrix for %s needs %d bytes", dir, need)
	}

	paths := make([]string, len(m.Chunks))
	for i, c := range m.Chunks {
		paths[i] = c.Path
	}
	matrix, filled, err := intensity.DecodeStream(paths, params.channelCount, params.frameCount)
	if err != nil {
		return nil, err
	}
	if filled < params.frameCount {
		if cfg.strictFrames {
			return nil, errors.Wrapf(ErrFrameShortfall, "chunks cover %d of %d frames", filled, params.frameCount)
		}
		log.Warningf("%s: intensity chunks cover %d of %d declared frames; trailing columns are zero",
			dir, filled, params.frameCount)
	}

	rec.Data = &DataBlock{
		Intensity:    matrix,
		ChannelCount: params.channelCount,
		FrameCount:   params.frameCount,
		FilledFrames: filled,
		FrameRate:    params.frameRate,
	}
	return rec, nil
}

// warnLayoutCoverage flags enumerated tiles the template layout does not
// place. The layout may legitimately describe a larger cap, so this is a
// diagnostic, not an error.
func warnLayoutCoverage(layout *CapLayout, nodes []Node) {
	for _, n := range nodes {
		if _, ok := layout.Nodes[n.ID]; !ok {
			log.Warningf("tile %d has no position in the template layout", n.ID)
		}
	}
}
