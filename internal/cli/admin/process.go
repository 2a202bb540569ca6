package admin

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/cloo-solutions/docchat/internal/cli"
	"github.com/cloo-solutions/docchat/internal/config"
	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/cloo-solutions/docchat/internal/service"
	"github.com/spf13/cobra"
)

// DocumentProcessor is the part of the document service process needs.
type DocumentProcessor interface {
	ListFiles(ctx context.Context) ([]string, error)
	Process(ctx context.Context, key string) (*service.ProcessResult, error)
	Enqueue(ctx context.Context, key string) (*domain.IngestionJob, error)
}

// ProcessCmd returns the process command
func ProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process [key...]",
		Short: "Index stored documents without going through the API",
		Long: `Load, chunk, embed and index the named documents, replacing their
previous index entries. With --all every blob in the bucket is processed.`,
		Example: `  docchatd process handbook.pdf faq.md
  docchatd process --all --queue`,
		RunE: runProcess,
	}

	cmd.Flags().Bool("all", false, "Process every stored document")
	cmd.Flags().Bool("queue", false, "Queue ingestion jobs for the server's worker instead of processing inline")

	return cmd
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	all, _ := cmd.Flags().GetBool("all")
	queue, _ := cmd.Flags().GetBool("queue")
	if all == (len(args) > 0) {
		return fmt.Errorf("pass either document keys or --all")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	a, err := buildApp(ctx, cfg, pool)
	if err != nil {
		return err
	}

	return processDocuments(ctx, a.documents, args, all, queue, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// processDocuments runs every key even when some fail and reports the
// failures together at the end.
func processDocuments(ctx context.Context, docs DocumentProcessor, keys []string, all, queue bool, out, progress io.Writer) error {
	if all {
		files, err := docs.ListFiles(ctx)
		if err != nil {
			return err
		}
		keys = files
	}
	if len(keys) == 0 {
		fmt.Fprintln(out, "No documents to process")
		return nil
	}

	description := "Indexing"
	if queue {
		description = "Queueing"
	}
	bar := cli.NewProgressBar(progress, len(keys), description)

	var lines []string
	failed := 0
	for _, key := range keys {
		line, err := processOne(ctx, docs, key, queue)
		if err != nil {
			failed++
			log.Printf("process: %s failed: %v", key, err)
			line = fmt.Sprintf("%s: failed: %v", key, err)
		}
		lines = append(lines, line)
		_ = bar.Add(1)
	}

	for _, line := range lines {
		fmt.Fprintln(out, line)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(keys))
	}
	return nil
}

func processOne(ctx context.Context, docs DocumentProcessor, key string, queue bool) (string, error) {
	if queue {
		job, err := docs.Enqueue(ctx, key)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s: queued as job %s", key, job.ID), nil
	}

	result, err := docs.Process(ctx, key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s: %d chunks, %d indexed (%s)", key, result.Chunks, result.ChunksIndexed, result.Message), nil
}
