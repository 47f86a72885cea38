package lumo

import (
	"sort"

	toml "github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Event is one experiment marker from the container's event log.
type Event struct {
	Timestamp float64 // seconds since recording start
	Mark      string
}

// readEvents decodes the event table at path, sorted ascending by
// timestamp.
func readEvents(path string) ([]Event, error) {
	tree, err := toml.LoadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrBadEventTable, "%s: %v", path, err)
	}

	raw, err := subTrees(tree, "event")
	if err != nil {
		return nil, errors.Wrapf(ErrBadEventTable, "%s: %v", path, err)
	}

	events := make([]Event, 0, len(raw))
	for i, et := range raw {
		ts, err := reqFloat(et, "timestamp")
		if err != nil {
			return nil, errors.Wrapf(ErrBadEventTable, "%s: event[%d]: %v", path, i, err)
		}
		mark, err := optString(et, "mark")
		if err != nil {
			return nil, errors.Wrapf(ErrBadEventTable, "%s: event[%d]: %v", path, i, err)
		}
		events = append(events, Event{Timestamp: ts, Mark: mark})
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp < events[j].Timestamp })
	return events, nil
}
