package gallery

import "testing"

func TestGallery_AppendCopiesEmbedding(t *testing.T) {
	g := New("dlib")
	emb := []float32{1, 2, 3}

	g.Append("S1", emb)
	emb[0] = 99

	if g.Entries[0].Embedding[0] != 1 {
		t.Errorf("expected stored embedding to be a copy, got %v", g.Entries[0].Embedding)
	}
}

func TestGallery_LenAndDim(t *testing.T) {
	g := New("dlib")

	if g.Len() != 0 || g.Dim() != 0 {
		t.Errorf("expected empty gallery, got len=%d dim=%d", g.Len(), g.Dim())
	}

	g.Append("S1", []float32{0.1, 0.2})
	g.Append("S2", []float32{0.3, 0.4})

	if g.Len() != 2 {
		t.Errorf("expected len 2, got %d", g.Len())
	}
	if g.Dim() != 2 {
		t.Errorf("expected dim 2, got %d", g.Dim())
	}
}

func TestGallery_Index(t *testing.T) {
	g := New("dlib")
	g.Append("S1", []float32{1})
	g.Append("S2", []float32{2})

	tests := []struct {
		name       string
		identifier string
		expected   int
	}{
		{"first", "S1", 0},
		{"second", "S2", 1},
		{"missing", "S3", -1},
		{"case sensitive", "s1", -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := g.Index(tc.identifier); got != tc.expected {
				t.Errorf("Index(%q) = %d; want %d", tc.identifier, got, tc.expected)
			}
		})
	}
}

func TestGallery_IdentifiersInInsertionOrder(t *testing.T) {
	g := New("dlib")
	for _, id := range []string{"c", "a", "b"} {
		g.Append(id, []float32{1})
	}

	ids := g.Identifiers()
	want := []string{"c", "a", "b"}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Identifiers()[%d] = %q; want %q", i, ids[i], want[i])
		}
	}
}
