package lumo

import (
	toml "github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// OptodePosition is one optode's place in the template cap, in the layout's
// own units.
type OptodePosition struct {
	Name    string // optode name, "0".."3" or "A".."C"
	X, Y, Z float64
}

// CapLayout is the optional template cap geometry. It links to the
// enumeration by tile ID and may describe more tiles than the recording
// used.
type CapLayout struct {
	UID   string
	Nodes map[int][]OptodePosition
}

// readCapLayout decodes the template layout table at path.
func readCapLayout(path string) (*CapLayout, error) {
	tree, err := toml.LoadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrBadLayoutTable, "%s: %v", path, err)
	}

	lt, err := reqTree(tree, "layout")
	if err != nil {
		return nil, errors.Wrapf(ErrBadLayoutTable, "%s: %v", path, err)
	}
	layout := &CapLayout{Nodes: make(map[int][]OptodePosition)}
	if layout.UID, err = optString(lt, "uid"); err != nil {
		return nil, errors.Wrapf(ErrBadLayoutTable, "%s: %v", path, err)
	}

	rawNodes, err := subTrees(lt, "node")
	if err != nil {
		return nil, errors.Wrapf(ErrBadLayoutTable, "%s: %v", path, err)
	}
	for i, nt := range rawNodes {
		id, err := reqInt(nt, "id")
		if err != nil {
			return nil, errors.Wrapf(ErrBadLayoutTable, "%s: node[%d]: %v", path, i, err)
		}
		if _, dup := layout.Nodes[int(id)]; dup {
			return nil, errors.Wrapf(ErrBadLayoutTable, "%s: duplicate node id %d", path, id)
		}

		optodes, err := subTrees(nt, "optode")
		if err != nil {
			return nil, errors.Wrapf(ErrBadLayoutTable, "%s: node %d: %v", path, id, err)
		}
		positions := make([]OptodePosition, 0, len(optodes))
		for j, ot := range optodes {
			var p OptodePosition
			if p.Name, err = optString(ot, "name"); err != nil {
				return nil, errors.Wrapf(ErrBadLayoutTable, "%s: node %d optode[%d]: %v", path, id, j, err)
			}
			if p.X, err = reqFloat(ot, "x"); err != nil {
				return nil, errors.Wrapf(ErrBadLayoutTable, "%s: node %d optode[%d]: %v", path, id, j, err)
			}
			if p.Y, err = reqFloat(ot, "y"); err != nil {
				return nil, errors.Wrapf(ErrBadLayoutTable, "%s: node %d optode[%d]: %v", path, id, j, err)
			}
			if p.Z, err = reqFloat(ot, "z"); err != nil {
				return nil, errors.Wrapf(ErrBadLayoutTable, "%s: node %d optode[%d]: %v", path, id, j, err)
			}
			positions = append(positions, p)
		}
		layout.Nodes[int(id)] = positions
	}

	return layout, nil
}
