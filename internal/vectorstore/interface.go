package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_index.go -package=mocks haetsal-ai/internal/vectorstore Index

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrDimensionMismatch is returned when a vector does not match the index dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Neighbor is a single nearest-neighbour hit.
// Index is the zero-based insertion position of the stored vector and
// Distance is the squared Euclidean distance to the query.
type Neighbor struct {
	Index    int
	Distance float32
}

// Index is an exact nearest-neighbour index over fixed-dimension float32 vectors.
// Positions are assigned in insertion order starting at zero after Reset.
type Index interface {
	// Dim returns the vector dimension accepted by the index.
	Dim() int

	// Len returns the number of stored vectors.
	Len() int

	// Reset removes every stored vector.
	Reset(ctx context.Context) error

	// Add appends vectors. Their positions continue from Len().
	Add(ctx context.Context, vectors [][]float32) error

	// Search returns up to k neighbours ordered by ascending squared L2 distance.
	// Ties are broken by ascending position. k is clamped to Len(); k <= 0 or an
	// empty index yields an empty result.
	Search(ctx context.Context, query []float32, k int) ([]Neighbor, error)
}

func checkDim(dim int, vec []float32) error {
	if len(vec) != dim {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, dim, len(vec))
	}
	return nil
}

// sortNeighbors orders hits by distance then position.
func sortNeighbors(hits []Neighbor) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Index < hits[j].Index
	})
}
