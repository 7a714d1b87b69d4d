package normalizer

import "sort"

// TaxonomyMap maps one provider's asset identifiers to shared symbols.
// It is immutable once built.
type TaxonomyMap struct {
	entries map[string]string
}

// NewTaxonomyMap copies m into a new map.
func NewTaxonomyMap(m map[string]string) TaxonomyMap {
	entries := make(map[string]string, len(m))
	for k, v := range m {
		entries[k] = v
	}

	return TaxonomyMap{entries: entries}
}

// Lookup returns the symbol for id.
func (m TaxonomyMap) Lookup(id string) (string, bool) {
	s, ok := m.entries[id]

	return s, ok
}

// Len returns the number of entries.
func (m TaxonomyMap) Len() int {
	return len(m.entries)
}

// Entries returns a copy of the mapping.
func (m TaxonomyMap) Entries() map[string]string {
	out := make(map[string]string, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}

	return out
}

// IDs returns the mapped identifiers, sorted.
func (m TaxonomyMap) IDs() []string {
	ids := make([]string, 0, len(m.entries))
	for k := range m.entries {
		ids = append(ids, k)
	}

	sort.Strings(ids)

	return ids
}

// Translate maps each identifier to its symbol. Unknown identifiers pass
// through unchanged, and the output keeps the input's length and order.
func (m TaxonomyMap) Translate(ids []string) []string {
	out := make([]string, len(ids))

	for i, id := range ids {
		if s, ok := m.entries[id]; ok {
			out[i] = s
		} else {
			out[i] = id
		}
	}

	return out
}

// Translate maps ids through m.
func Translate(ids []string, m TaxonomyMap) []string {
	return m.Translate(ids)
}
