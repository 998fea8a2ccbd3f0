package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/qdrant/go-client/qdrant"

	"haetsal-ai/internal/contextutil"
)

const qdrantUpsertBatch = 256

// QdrantIndex implements Index on a single Qdrant collection using Euclidean distance.
// Point IDs are the numeric insertion positions.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	dim        int

	mu    sync.RWMutex
	count int
}

// NewQdrantIndex creates a Qdrant-backed index.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port (typically 6334) is derived from the HTTP port.
func NewQdrantIndex(urlStr, collection string, dim int) (*QdrantIndex, error) {
	host, port, err := qdrantEndpoint(urlStr)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantIndex{
		client:     client,
		collection: collection,
		dim:        dim,
	}, nil
}

// qdrantEndpoint resolves the gRPC host and port from a Qdrant HTTP URL.
func qdrantEndpoint(urlStr string) (string, int, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err == nil {
			// gRPC port is typically HTTP port + 1
			port = httpPort + 1
		}
	}
	return host, port, nil
}

func (q *QdrantIndex) Dim() int { return q.dim }

func (q *QdrantIndex) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.count
}

// Reset drops and recreates the collection.
func (q *QdrantIndex) Reset(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
			return fmt.Errorf("failed to delete collection: %w", err)
		}
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dim),
			Distance: qdrant.Distance_Euclid,
		}),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to create collection", "collection", q.collection, "error", err)
		return fmt.Errorf("failed to create collection: %w", err)
	}

	q.mu.Lock()
	q.count = 0
	q.mu.Unlock()

	logger.InfoContext(ctx, "collection reset", "collection", q.collection, "vector_size", q.dim)
	return nil
}

func (q *QdrantIndex) Add(ctx context.Context, vectors [][]float32) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(vectors) == 0 {
		return nil
	}
	for i, v := range vectors {
		if err := checkDim(q.dim, v); err != nil {
			return fmt.Errorf("vector %d: %w", i, err)
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for start := 0; start < len(vectors); start += qdrantUpsertBatch {
		end := min(start+qdrantUpsertBatch, len(vectors))

		points := make([]*qdrant.PointStruct, 0, end-start)
		for i := start; i < end; i++ {
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDNum(uint64(q.count + i)),
				Vectors: qdrant.NewVectors(vectors[i]...),
			})
		}

		_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: q.collection,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		if err != nil {
			logger.ErrorContext(ctx, "failed to upsert points", "collection", q.collection, "count", len(points), "error", err)
			return fmt.Errorf("failed to upsert points: %w", err)
		}
	}

	q.count += len(vectors)
	logger.InfoContext(ctx, "upserted points", "collection", q.collection, "count", len(vectors))
	return nil
}

// Search queries the collection. Qdrant reports plain Euclidean distance, so scores are squared.
func (q *QdrantIndex) Search(ctx context.Context, query []float32, k int) ([]Neighbor, error) {
	if err := checkDim(q.dim, query); err != nil {
		return nil, err
	}

	n := q.Len()
	if k <= 0 || n == 0 {
		return []Neighbor{}, nil
	}
	if k > n {
		k = n
	}

	limit := uint64(k)
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}

	hits := make([]Neighbor, 0, len(points))
	for _, p := range points {
		if p.GetId() == nil {
			continue
		}
		d := p.GetScore()
		hits = append(hits, Neighbor{
			Index:    int(p.GetId().GetNum()),
			Distance: d * d,
		})
	}
	sortNeighbors(hits)
	return hits, nil
}

// Close releases the underlying gRPC connection.
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}
