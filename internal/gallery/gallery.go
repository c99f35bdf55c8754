// Package gallery holds the registered face signatures and persists them to a flat file.
package gallery

// Entry is one registered face: an external identifier (e.g. a student ID) and its embedding.
type Entry struct {
	Identifier string
	Embedding  []float32
}

// Gallery is the ordered set of registered entries. Insertion order is preserved
// because recognition ties are broken by first occurrence.
type Gallery struct {
	Model   string // extractor model the embeddings were produced by
	Entries []Entry
}

// New creates an empty gallery for the given extractor model.
func New(model string) *Gallery {
	return &Gallery{Model: model}
}

// Len returns the number of entries.
func (g *Gallery) Len() int {
	return len(g.Entries)
}

// Dim returns the embedding dimensionality, or 0 for an empty gallery.
func (g *Gallery) Dim() int {
	if len(g.Entries) == 0 {
		return 0
	}
	return len(g.Entries[0].Embedding)
}

// Append adds an entry at the end. The embedding is copied.
func (g *Gallery) Append(identifier string, embedding []float32) {
	emb := make([]float32, len(embedding))
	copy(emb, embedding)
	g.Entries = append(g.Entries, Entry{Identifier: identifier, Embedding: emb})
}

// Index returns the position of the first entry with the identifier, or -1.
func (g *Gallery) Index(identifier string) int {
	for i := range g.Entries {
		if g.Entries[i].Identifier == identifier {
			return i
		}
	}
	return -1
}

// Identifiers returns the identifiers in insertion order.
func (g *Gallery) Identifiers() []string {
	ids := make([]string, len(g.Entries))
	for i, e := range g.Entries {
		ids[i] = e.Identifier
	}
	return ids
}
