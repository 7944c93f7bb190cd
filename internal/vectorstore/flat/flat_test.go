package flat

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medirag/internal/domain"
)

func chunk(title, text string, page int) domain.Chunk {
	return domain.Chunk{Text: text, SourceTitle: title, Page: page}
}

func TestMergeEmptyIsNoop(t *testing.T) {
	s := New()
	require.NoError(t, s.Merge(nil, nil))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.Dimension())
}

func TestMergeRejectsMismatches(t *testing.T) {
	s := New()
	err := s.Merge([]domain.Chunk{chunk("A", "x", 1)}, nil)
	assert.Error(t, err)

	require.NoError(t, s.Merge([]domain.Chunk{chunk("A", "x", 1)}, [][]float64{{1, 0}}))
	err = s.Merge([]domain.Chunk{chunk("A", "y", 1)}, [][]float64{{1, 0, 0}})
	assert.Error(t, err)
}

func TestMergeOrderInsensitiveContent(t *testing.T) {
	a := []domain.Chunk{chunk("A", "alpha", 1), chunk("A", "beta", 2)}
	av := [][]float64{{1, 0}, {0.9, 0.1}}
	b := []domain.Chunk{chunk("B", "gamma", 1)}
	bv := [][]float64{{0, 1}}

	s1 := New()
	require.NoError(t, s1.Merge(a, av))
	require.NoError(t, s1.Merge(b, bv))

	s2 := New()
	require.NoError(t, s2.Merge(b, bv))
	require.NoError(t, s2.Merge(a, av))

	s3 := New()
	require.NoError(t, s3.Merge(append(append([]domain.Chunk{}, a...), b...), append(append([][]float64{}, av...), bv...)))

	for _, s := range []*Store{s1, s2, s3} {
		assert.Equal(t, 3, s.Len())
		assert.Equal(t, map[string]struct{}{"A": {}, "B": {}}, s.Titles())
		// same best hit regardless of merge order
		res := s.Search([]float64{0, 1}, 1)
		require.Len(t, res, 1)
		assert.Equal(t, "gamma", res[0].Chunk.Text)
	}
}

func TestSearchOrderingAndBounds(t *testing.T) {
	s := New()
	chunks := []domain.Chunk{chunk("A", "one", 1), chunk("A", "two", 2), chunk("A", "three", 3)}
	vectors := [][]float64{{1, 0}, {0.7, 0.7}, {0, 1}}
	require.NoError(t, s.Merge(chunks, vectors))

	res := s.Search([]float64{1, 0}, 3)
	require.Len(t, res, 3)
	assert.Equal(t, "one", res[0].Chunk.Text)
	for i := 1; i < len(res); i++ {
		assert.GreaterOrEqual(t, res[i-1].Score, res[i].Score)
	}

	assert.Empty(t, s.Search([]float64{1, 0}, 0))
	assert.Len(t, s.Search([]float64{1, 0}, 10), 3)
}

func TestSearchEmptyIndex(t *testing.T) {
	s := New()
	assert.Empty(t, s.Search([]float64{1, 0}, 5))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store", "index.json")

	s := New()
	chunks := []domain.Chunk{
		{Text: "Aspirin reduces fever.", SourceTitle: "Pharma101", Page: 3, StartOffset: 120},
		{Text: "Ibuprofen is an NSAID.", SourceTitle: "Pharma101", Page: 4, StartOffset: 0},
	}
	vectors := [][]float64{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}}
	require.NoError(t, s.Merge(chunks, vectors))
	require.NoError(t, s.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s.Len(), loaded.Len())
	assert.Equal(t, s.Dimension(), loaded.Dimension())
	assert.Equal(t, s.Titles(), loaded.Titles())

	res := loaded.Search([]float64{0.1, 0.2, 0.3}, 1)
	require.Len(t, res, 1)
	assert.Equal(t, chunks[0], res[0].Chunk)
	assert.InDelta(t, 1.0, res[0].Score, 1e-9)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")

	s := New()
	require.NoError(t, s.Merge([]domain.Chunk{chunk("A", "x", 1)}, [][]float64{{1}}))
	require.NoError(t, s.Save(path))
	require.NoError(t, s.Save(path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "index.json", entries[0].Name())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, errors.Is(err, domain.ErrIndexLoad))
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := Load(path)
	assert.True(t, errors.Is(err, domain.ErrIndexLoad))
}

func TestLoadOrNewFallsBack(t *testing.T) {
	s, loaded := LoadOrNew(filepath.Join(t.TempDir(), "absent.json"))
	assert.False(t, loaded)
	assert.Equal(t, 0, s.Len())
}
