package records

// mergeInto applies a sparse payload onto a stored document. Nested maps are
// merged key by key so writing metadata.gender keeps metadata.patientCode;
// every other value replaces what was stored.
func mergeInto(dst, patch map[string]any) {
	for k, pv := range patch {
		pm, ok := pv.(map[string]any)
		if !ok {
			dst[k] = pv
			continue
		}
		dm, ok := dst[k].(map[string]any)
		if !ok {
			dm = make(map[string]any, len(pm))
			dst[k] = dm
		}
		mergeInto(dm, pm)
	}
}

// dottedSet flattens a payload into $set-style dotted keys
// ({"metadata":{"gender":"F"}} becomes {"metadata.gender":"F"}).
func dottedSet(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if nested, ok := v.(map[string]any); ok && len(nested) > 0 {
				walk(key, nested)
				continue
			}
			out[key] = v
		}
	}
	walk("", payload)
	return out
}
