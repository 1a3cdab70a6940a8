package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Leaves maps a full leaf path to its JSON encoded scalar. This is the only
// shape backends persist.
type Leaves map[string]json.RawMessage

// Flatten converts value into the leaves it occupies below path. value goes
// through encoding/json first, so structs with json tags, maps and scalars are
// all accepted. nil and empty objects produce no leaves.
func Flatten(path string, value any) (Leaves, error) {
	out := Leaves{}
	if value == nil {
		return out, nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("store: encode %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("store: encode %s: %w", path, err)
	}

	if err := flattenInto(out, path, generic); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenInto(out Leaves, path string, v any) error {
	switch x := v.(type) {
	case nil:
		return nil
	case map[string]any:
		for k, child := range x {
			if err := ValidateKey(k); err != nil {
				return err
			}
			if err := flattenInto(out, path+"/"+k, child); err != nil {
				return err
			}
		}
		return nil
	case []any:
		for i, child := range x {
			if err := flattenInto(out, path+"/"+strconv.Itoa(i), child); err != nil {
				return err
			}
		}
		return nil
	default:
		raw, err := json.Marshal(x)
		if err != nil {
			return fmt.Errorf("store: encode %s: %w", path, err)
		}
		out[path] = raw
		return nil
	}
}

// Unflatten rebuilds the value stored at base from leaves. It returns nil
// when nothing is stored there.
func Unflatten(base string, leaves Leaves) (any, error) {
	if raw, ok := leaves[base]; ok {
		return decodeScalar(raw)
	}

	root := map[string]any{}
	prefix := base + "/"
	for p, raw := range leaves {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		v, err := decodeScalar(raw)
		if err != nil {
			return nil, fmt.Errorf("store: decode %s: %w", p, err)
		}

		segs := strings.Split(p[len(prefix):], "/")
		node := root
		for _, seg := range segs[:len(segs)-1] {
			next, ok := node[seg].(map[string]any)
			if !ok {
				next = map[string]any{}
				node[seg] = next
			}
			node = next
		}
		last := segs[len(segs)-1]
		if _, isMap := node[last].(map[string]any); !isMap {
			node[last] = v
		}
	}

	if len(root) == 0 {
		return nil, nil
	}
	return root, nil
}

func decodeScalar(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Millis encodes an instant the way records store it.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis decodes a stored instant. Zero stays the zero time.
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// OptionalMillis encodes an optional instant.
func OptionalMillis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

// FromOptionalMillis decodes an optional instant.
func FromOptionalMillis(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}
