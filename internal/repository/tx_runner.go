package repository

import (
	"context"

	"github.com/cloo-solutions/docchat/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRunner runs ingestion steps that must land together, such as swapping a
// document's chunks and updating its status, in one Postgres transaction.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// WithTx commits when fn returns nil and rolls back otherwise.
func (r *TxRunner) WithTx(ctx context.Context, fn func(repos service.TxRepositories) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(bindTx(tx))
	})
}

// txRepos hands out repositories sharing one transaction.
type txRepos struct {
	chunks *ChunkRepository
	docs   *DocumentRepository
	jobs   *IngestionJobRepository
}

func bindTx(tx pgx.Tx) *txRepos {
	return &txRepos{
		chunks: NewChunkRepositoryWithTx(tx),
		docs:   NewDocumentRepositoryWithTx(tx),
		jobs:   NewIngestionJobRepositoryWithTx(tx),
	}
}

func (r *txRepos) Chunks() service.ChunkRepositoryInterface               { return r.chunks }
func (r *txRepos) Documents() service.DocumentRepositoryInterface         { return r.docs }
func (r *txRepos) IngestionJobs() service.IngestionJobRepositoryInterface { return r.jobs }
