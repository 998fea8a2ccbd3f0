package vectorstore

import (
	"context"
	"fmt"
	"sync"
)

// FlatIndex is an in-process brute-force index.
type FlatIndex struct {
	mu      sync.RWMutex
	dim     int
	vectors [][]float32
}

// NewFlatIndex creates an empty in-memory index for vectors of the given dimension.
func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

func (f *FlatIndex) Dim() int { return f.dim }

func (f *FlatIndex) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

func (f *FlatIndex) Reset(ctx context.Context) error {
	f.mu.Lock()
	f.vectors = nil
	f.mu.Unlock()
	return nil
}

func (f *FlatIndex) Add(ctx context.Context, vectors [][]float32) error {
	for i, v := range vectors {
		if err := checkDim(f.dim, v); err != nil {
			return fmt.Errorf("vector %d: %w", i, err)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range vectors {
		cp := make([]float32, len(v))
		copy(cp, v)
		f.vectors = append(f.vectors, cp)
	}
	return nil
}

func (f *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]Neighbor, error) {
	if err := checkDim(f.dim, query); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if k <= 0 || len(f.vectors) == 0 {
		return []Neighbor{}, nil
	}
	if k > len(f.vectors) {
		k = len(f.vectors)
	}

	hits := make([]Neighbor, len(f.vectors))
	for i, v := range f.vectors {
		hits[i] = Neighbor{Index: i, Distance: squaredL2(query, v)}
	}
	sortNeighbors(hits)
	return hits[:k], nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
