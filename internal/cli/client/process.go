package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/cloo-solutions/docchat/internal/cli"
	"github.com/spf13/cobra"
)

// ProcessResult represents a synchronous processing run.
type ProcessResult struct {
	Blob          string `json:"blob"`
	Chunks        int    `json:"chunks"`
	ChunksIndexed int    `json:"chunks_indexed"`
	Message       string `json:"message"`
}

// Job represents a queued ingestion job.
type Job struct {
	ID          string `json:"id"`
	DocumentKey string `json:"document_key"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// ProcessOutcome is the command's JSON output for one document.
type ProcessOutcome struct {
	Key    string         `json:"key"`
	Result *ProcessResult `json:"result,omitempty"`
	Job    *Job           `json:"job,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// ProcessCmd creates the process command.
func ProcessCmd() *cobra.Command {
	var (
		all   bool
		async bool
	)

	cmd := &cobra.Command{
		Use:   "process [key...]",
		Short: "Extract, chunk, and index uploaded documents",
		Long: `Runs ingestion for the named documents, or for every uploaded file with --all.

By default each document is processed before the command returns. With
--async the server queues an ingestion job and answers immediately.

Examples:
  docchat process handbook.pdf
  docchat process --all --async`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return fmt.Errorf("pass either document keys or --all")
			}
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			keys := args
			if all {
				files, err := fetchFiles(api)
				if err != nil {
					return err
				}
				keys = files.Files
			}
			return runProcess(api, keys, async, cmd.OutOrStdout(), cmd.ErrOrStderr(), outputJSON)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Process every uploaded file")
	cmd.Flags().BoolVar(&async, "async", false, "Queue ingestion jobs instead of waiting")

	return cmd
}

func runProcess(api *APIClient, keys []string, async bool, out, progress io.Writer, outputJSON bool) error {
	if len(keys) == 0 {
		fmt.Fprintln(out, "No documents to process")
		return nil
	}

	outcomes := make([]ProcessOutcome, 0, len(keys))
	failed := 0

	bar := cli.NewProgressBar(progress, len(keys), "Processing")
	for _, key := range keys {
		outcome := processOne(api, key, async)
		if outcome.Error != "" {
			failed++
		}
		outcomes = append(outcomes, outcome)
		_ = bar.Add(1)
	}

	if outputJSON {
		if err := writeJSON(out, outcomes); err != nil {
			return err
		}
	} else {
		for _, o := range outcomes {
			switch {
			case o.Error != "":
				fmt.Fprintf(out, "%s: failed: %s\n", o.Key, o.Error)
			case o.Job != nil:
				fmt.Fprintf(out, "%s: queued as job %s\n", o.Key, o.Job.ID)
			default:
				fmt.Fprintf(out, "%s: %d chunks, %d indexed (%s)\n", o.Key, o.Result.Chunks, o.Result.ChunksIndexed, o.Result.Message)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(keys))
	}
	return nil
}

func processOne(api *APIClient, key string, async bool) ProcessOutcome {
	query := url.Values{}
	query.Set("blob", key)
	if async {
		query.Set("async", "true")
	}

	outcome := ProcessOutcome{Key: key}

	resp, err := api.Post("/process?"+query.Encode(), nil)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	if async {
		var job Job
		if err := json.Unmarshal(resp.Data, &job); err != nil {
			outcome.Error = fmt.Sprintf("failed to parse job: %v", err)
			return outcome
		}
		outcome.Job = &job
		return outcome
	}

	var result ProcessResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		outcome.Error = fmt.Sprintf("failed to parse result: %v", err)
		return outcome
	}
	outcome.Result = &result
	return outcome
}
