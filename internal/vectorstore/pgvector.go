package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"haetsal-ai/internal/contextutil"
)

// PgVectorIndex implements Index on a PostgreSQL table using the pgvector extension.
type PgVectorIndex struct {
	pool  *pgxpool.Pool
	table string
	dim   int

	mu    sync.RWMutex
	count int
}

// NewPgVectorIndex connects to PostgreSQL and prepares the vector extension.
func NewPgVectorIndex(ctx context.Context, dsn, table string, dim int) (*PgVectorIndex, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create vector extension: %w", err)
	}

	return &PgVectorIndex{
		pool:  pool,
		table: table,
		dim:   dim,
	}, nil
}

func (p *PgVectorIndex) ident() string {
	return pgx.Identifier{p.table}.Sanitize()
}

func (p *PgVectorIndex) Dim() int { return p.dim }

func (p *PgVectorIndex) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.count
}

// Reset drops and recreates the backing table.
func (p *PgVectorIndex) Reset(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	if _, err := p.pool.Exec(ctx, "DROP TABLE IF EXISTS "+p.ident()); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}

	create := fmt.Sprintf(`CREATE TABLE %s (
		position INTEGER PRIMARY KEY,
		embedding vector(%d) NOT NULL
	)`, p.ident(), p.dim)
	if _, err := p.pool.Exec(ctx, create); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	p.mu.Lock()
	p.count = 0
	p.mu.Unlock()

	logger.InfoContext(ctx, "pgvector table reset", "table", p.table, "vector_size", p.dim)
	return nil
}

func (p *PgVectorIndex) Add(ctx context.Context, vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	for i, v := range vectors {
		if err := checkDim(p.dim, v); err != nil {
			return fmt.Errorf("vector %d: %w", i, err)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	batch := &pgx.Batch{}
	insert := fmt.Sprintf("INSERT INTO %s (position, embedding) VALUES ($1, $2)", p.ident())
	for i, v := range vectors {
		batch.Queue(insert, p.count+i, pgvector.NewVector(v))
	}

	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert vectors: %w", err)
	}

	p.count += len(vectors)
	return nil
}

// Search orders by the <-> operator, which is plain L2, and squares the result.
func (p *PgVectorIndex) Search(ctx context.Context, query []float32, k int) ([]Neighbor, error) {
	if err := checkDim(p.dim, query); err != nil {
		return nil, err
	}

	n := p.Len()
	if k <= 0 || n == 0 {
		return []Neighbor{}, nil
	}
	if k > n {
		k = n
	}

	sql := fmt.Sprintf(
		"SELECT position, embedding <-> $1 AS distance FROM %s ORDER BY distance, position LIMIT $2",
		p.ident())
	rows, err := p.pool.Query(ctx, sql, pgvector.NewVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	hits := make([]Neighbor, 0, k)
	for rows.Next() {
		var (
			pos  int
			dist float64
		)
		if err := rows.Scan(&pos, &dist); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		hits = append(hits, Neighbor{Index: pos, Distance: float32(dist * dist)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	sortNeighbors(hits)
	return hits, nil
}

// Close releases the connection pool.
func (p *PgVectorIndex) Close() {
	p.pool.Close()
}
