package kgextract

import "strings"

// entityKey is the identity key for deduplication: case-insensitive,
// whitespace-trimmed display name.
func entityKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ResolveEntities merges entity records that refer to the same concept.
// Input order is preserved; the first occurrence anchors the merged record.
// Merge rules, applied per field:
//   - type: kept unless the existing value is Unknown and the incoming is not
//   - aliases: union, duplicates removed
//   - normalized ontology ref: first value that is neither empty nor the
//     sentinel wins
//
// No field is ever replaced by a weaker incoming value, so resolving an
// already-resolved list is a no-op.
func ResolveEntities(entities []Entity) []Entity {
	if len(entities) == 0 {
		return nil
	}

	order := make([]string, 0, len(entities))
	byKey := make(map[string]*Entity, len(entities))

	for _, e := range entities {
		key := entityKey(e.Name)
		if key == "" {
			continue
		}
		existing, ok := byKey[key]
		if !ok {
			copied := e
			copied.Aliases = dedupeAliases(nil, e.Aliases)
			byKey[key] = &copied
			order = append(order, key)
			continue
		}
		if existing.Type == UnknownType && e.Type != UnknownType {
			existing.Type = e.Type
		}
		existing.Aliases = dedupeAliases(existing.Aliases, e.Aliases)
		if unsetOntologyRef(existing.NormalizedID) && !unsetOntologyRef(e.NormalizedID) {
			existing.NormalizedID = e.NormalizedID
		}
	}

	resolved := make([]Entity, 0, len(order))
	for _, key := range order {
		resolved = append(resolved, *byKey[key])
	}
	return resolved
}

// unsetOntologyRef reports whether id carries no ontology information. Partial
// records leave NormalizedID empty rather than setting the sentinel.
func unsetOntologyRef(id string) bool {
	return id == "" || id == UnsetOntologyRef
}

func dedupeAliases(existing, incoming []string) []string {
	if len(existing) == 0 && len(incoming) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(existing)+len(incoming))
	out := make([]string, 0, len(existing)+len(incoming))
	for _, group := range [][]string{existing, incoming} {
		for _, a := range group {
			a = strings.TrimSpace(a)
			if a == "" || seen[strings.ToLower(a)] {
				continue
			}
			seen[strings.ToLower(a)] = true
			out = append(out, a)
		}
	}
	return out
}
