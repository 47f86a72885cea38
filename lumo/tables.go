package lumo

import (
	toml "github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Accessors over the generic configuration trees produced by the manifest.
// Required fields fail with ErrMissingField or ErrBadField naming the key;
// optional accessors return their default for absent keys but still reject
// wrong types.

func reqTree(t *toml.Tree, key string) (*toml.Tree, error) {
	switch v := t.Get(key).(type) {
	case *toml.Tree:
		return v, nil
	case nil:
		return nil, errors.Wrap(ErrMissingField, key)
	default:
		return nil, errors.Wrapf(ErrBadField, "%s: not a table", key)
	}
}

func optTree(t *toml.Tree, key string) (*toml.Tree, error) {
	switch v := t.Get(key).(type) {
	case *toml.Tree:
		return v, nil
	case nil:
		return nil, nil
	default:
		return nil, errors.Wrapf(ErrBadField, "%s: not a table", key)
	}
}

func subTrees(t *toml.Tree, key string) ([]*toml.Tree, error) {
	raw := t.Get(key)
	if raw == nil {
		return nil, nil
	}
	sub, ok := raw.([]*toml.Tree)
	if !ok {
		return nil, errors.Wrapf(ErrBadField, "%s: not a table array", key)
	}
	return sub, nil
}

func reqInt(t *toml.Tree, key string) (int64, error) {
	switch v := t.Get(key).(type) {
	case int64:
		return v, nil
	case nil:
		return 0, errors.Wrap(ErrMissingField, key)
	default:
		return 0, errors.Wrapf(ErrBadField, "%s: not an integer", key)
	}
}

func optInt(t *toml.Tree, key string, def int64) (int64, error) {
	switch v := t.Get(key).(type) {
	case int64:
		return v, nil
	case nil:
		return def, nil
	default:
		return 0, errors.Wrapf(ErrBadField, "%s: not an integer", key)
	}
}

func optString(t *toml.Tree, key string) (string, error) {
	switch v := t.Get(key).(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	default:
		return "", errors.Wrapf(ErrBadField, "%s: not a string", key)
	}
}

func reqFloat(t *toml.Tree, key string) (float64, error) {
	switch v := t.Get(key).(type) {
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

func optFloat(t *toml.Tree, key string, def float64) (float64, error) {
	if t.Get(key) == nil {
		return def, nil
	}
	return reqFloat(t, key)
}

func reqIntSlice(t *toml.Tree, key string) ([]int64, error) {
	raw, ok := t.Get(key).([]interface{})
	if !ok {
		if t.Get(key) == nil {
			return nil, errors.Wrap(ErrMissingField, key)
		}
		return nil, errors.Wrapf(ErrBadField, "%s: not an array", key)
	}
	out := make([]int64, len(raw))
	for i, e := range raw {
		n, ok := e.(int64)
		if !ok {
			return nil, errors.Wrapf(ErrBadField, "%s[%d]: not an integer", key, i)
		}
		out[i] = n
	}
	return out, nil
}

func reqFloatSlice(t *toml.Tree, key string) ([]float64, error) {
	raw, ok := t.Get(key).([]interface{})
	if !ok {
		if t.Get(key) == nil {
			return nil, errors.Wrap(ErrMissingField, key)
		}
		return nil, errors.Wrapf(ErrBadField, "%s: not an array", key)
	}
	out := make([]float64, len(raw))
	for i, e := range raw {
		switch v := e.(type) {
		case float64:
			out[i] = v
		case int64:
			out[i] = float64(v)
		default:
			return nil, errors.Wrapf(ErrBadField, "%s[%d]: not a number", key, i)
		}
	}
	return out, nil
}
