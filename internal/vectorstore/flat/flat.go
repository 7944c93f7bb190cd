package flat

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"medirag/internal/domain"
)

// Store is a flat, persisted vector index using brute-force cosine
// similarity. Merge and Save take the write lock; Search takes the
// read lock, so queries may run concurrently with each other.
type Store struct {
	mu        sync.RWMutex
	dimension int
	chunks    []domain.Chunk
	vectors   [][]float64
}

type entry struct {
	Chunk  domain.Chunk `json:"chunk"`
	Vector []float64    `json:"vector"`
}

type fileFormat struct {
	Version   int     `json:"version"`
	Dimension int     `json:"dimension"`
	Entries   []entry `json:"entries"`
}

const formatVersion = 1

// New returns an empty index.
func New() *Store { return &Store{} }

// Load reads a persisted index from path. A missing, unreadable or
// structurally invalid file yields ErrIndexLoad; the caller decides
// whether to start fresh instead.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexLoad, err)
	}
	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexLoad, err)
	}
	if ff.Version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", domain.ErrIndexLoad, ff.Version)
	}
	s := &Store{dimension: ff.Dimension}
	for _, e := range ff.Entries {
		if ff.Dimension > 0 && len(e.Vector) != ff.Dimension {
			return nil, fmt.Errorf("%w: entry vector has %d dims, index has %d", domain.ErrIndexLoad, len(e.Vector), ff.Dimension)
		}
		s.chunks = append(s.chunks, e.Chunk)
		s.vectors = append(s.vectors, e.Vector)
	}
	return s, nil
}

// LoadOrNew loads a persisted index, falling back to a fresh empty
// index when none can be loaded. The second return reports whether an
// existing index was found.
func LoadOrNew(path string) (*Store, bool) {
	s, err := Load(path)
	if err != nil {
		return New(), false
	}
	return s, true
}

// Save serializes the full index state. The file is written to a
// temporary name in the target directory and renamed into place so a
// crash mid-write never leaves a truncated index behind.
func (s *Store) Save(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ff := fileFormat{Version: formatVersion, Dimension: s.dimension}
	ff.Entries = make([]entry, len(s.chunks))
	for i := range s.chunks {
		ff.Entries[i] = entry{Chunk: s.chunks[i], Vector: s.vectors[i]}
	}
	data, err := json.Marshal(ff)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// Titles returns the set of distinct source titles in the index.
func (s *Store) Titles() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	titles := make(map[string]struct{})
	for _, c := range s.chunks {
		titles[c.SourceTitle] = struct{}{}
	}
	return titles
}

// Merge appends chunks and their vectors. Purely additive; calling it
// with no input is a no-op.
func (s *Store) Merge(chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dim := s.dimension
	if dim == 0 {
		dim = len(vectors[0])
	}
	for _, v := range vectors {
		if len(v) != dim {
			return errors.New("vector dimension mismatch")
		}
	}
	s.dimension = dim
	s.chunks = append(s.chunks, chunks...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

// Search ranks every stored vector by cosine similarity to the query
// and returns the top k. If k exceeds the stored count, everything is
// returned.
func (s *Store) Search(vector []float64, k int) []domain.SearchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if k <= 0 || len(s.vectors) == 0 {
		return nil
	}
	scores := make([]float64, len(s.vectors))
	for i := range s.vectors {
		scores[i] = cosine(s.vectors[i], vector)
	}
	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })
	if k > len(idxs) {
		k = len(idxs)
	}
	results := make([]domain.SearchResult, 0, k)
	for _, j := range idxs[:k] {
		results = append(results, domain.SearchResult{Chunk: s.chunks[j], Score: scores[j]})
	}
	return results
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func (s *Store) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
