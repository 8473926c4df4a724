package loader

// DeepMerge merges src into dst and returns dst. Nested maps merge key by
// key; any other src value replaces the dst value.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for key, sv := range src {
		sm, srcIsMap := sv.(map[string]any)
		dm, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[key] = DeepMerge(dm, sm)
			continue
		}
		if srcIsMap {
			dst[key] = Clone(sm)
			continue
		}
		dst[key] = sv
	}
	return dst
}

// Merge combines layers from lowest to highest precedence into a new map.
// Nil layers are skipped.
func Merge(layers ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, l := range layers {
		out = DeepMerge(out, l)
	}
	return out
}

// Clone returns a deep copy of m.
func Clone(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return Clone(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
