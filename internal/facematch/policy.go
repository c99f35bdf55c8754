// Package facematch implements the registration and recognition policies on
// top of a gallery and an embedding extractor.
package facematch

import (
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/embedding"
	"github.com/kozaktomas/face-attendance/internal/gallery"
)

// Matcher holds the distance metric and the two tolerances. Lower tolerance is stricter.
type Matcher struct {
	Metric             embedding.Metric
	RegisterTolerance  float64
	RecognizeTolerance float64
}

// SingleFace enforces the one-face-per-image policy.
func SingleFace(faces []embedding.Face) (embedding.Face, error) {
	if len(faces) != 1 {
		return embedding.Face{}, fmt.Errorf("%w (found %d)", ErrAmbiguousFace, len(faces))
	}
	return faces[0], nil
}

// Distances returns the distance from emb to every entry, in gallery order.
func (m Matcher) Distances(g *gallery.Gallery, emb []float32) []float64 {
	distances := make([]float64, len(g.Entries))
	for i, e := range g.Entries {
		distances[i] = m.Metric.Distance(e.Embedding, emb)
	}
	return distances
}

// Register appends (identifier, emb) to g. A face matching any entry within the
// register tolerance is rejected whatever identifier it is registered under.
func (m Matcher) Register(g *gallery.Gallery, emb []float32, identifier string) (string, error) {
	id := NormalizeIdentifier(identifier)
	if id == "" {
		return "", ErrEmptyIdentifier
	}

	if dim := g.Dim(); dim != 0 && dim != len(emb) {
		return "", fmt.Errorf("%w: got %d, gallery has %d", ErrDimensionMismatch, len(emb), dim)
	}

	for _, d := range m.Distances(g, emb) {
		if d <= m.RegisterTolerance {
			return "", ErrDuplicateFace
		}
	}

	if g.Index(id) >= 0 {
		return "", fmt.Errorf("%w: %s", ErrDuplicateIdentifier, id)
	}

	g.Append(id, emb)
	return id, nil
}

// Recognize finds the closest entry to emb. When at least one entry is within
// the recognize tolerance the global argmin is reported; ties go to the entry
// registered first. An embedding that cannot be compared yields a KindError result.
func (m Matcher) Recognize(g *gallery.Gallery, emb []float32) Result {
	if g.Len() == 0 {
		return NoMatch()
	}

	if dim := g.Dim(); dim != len(emb) {
		return Failure(fmt.Errorf("%w: got %d, gallery has %d", ErrDimensionMismatch, len(emb), dim))
	}

	distances := m.Distances(g, emb)

	best := -1
	matched := false
	for i, d := range distances {
		if d <= m.RecognizeTolerance {
			matched = true
		}
		if best < 0 || d < distances[best] {
			best = i
		}
	}

	if !matched {
		return NoMatch()
	}
	return Match(g.Entries[best].Identifier, distances[best])
}
