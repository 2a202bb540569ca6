package service

import "context"

// TxRepositories are the repositories available inside WithTx. Writes through
// them commit or roll back together.
type TxRepositories interface {
	Chunks() ChunkRepositoryInterface
	Documents() DocumentRepositoryInterface
	IngestionJobs() IngestionJobRepositoryInterface
}

// TxRunner scopes a unit of work to one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}
