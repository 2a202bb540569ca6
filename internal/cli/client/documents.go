package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// FilesResponse represents the files API response.
type FilesResponse struct {
	Files []string `json:"files"`
	Count int      `json:"count"`
}

// Document is a registered upload and its ingestion state.
type Document struct {
	Key         string `json:"key"`
	FileType    string `json:"file_type"`
	ContentType string `json:"content_type,omitempty"`
	SizeBytes   int64  `json:"size_bytes"`
	Status      string `json:"status"`
	ChunkCount  int    `json:"chunk_count"`
	Error       string `json:"error,omitempty"`
	UploadedAt  string `json:"uploaded_at"`
	ProcessedAt string `json:"processed_at,omitempty"`
	UpdatedAt   string `json:"updated_at"`
}

// DocumentPage represents one page of the documents listing.
type DocumentPage struct {
	Items   []Document `json:"items"`
	Cursor  string     `json:"cursor,omitempty"`
	HasMore bool       `json:"has_more"`
}

// FilesCmd creates the files command.
func FilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List uploaded files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runFiles(api, cmd.OutOrStdout(), outputJSON)
		},
	}
}

func runFiles(api *APIClient, out io.Writer, outputJSON bool) error {
	files, err := fetchFiles(api)
	if err != nil {
		return err
	}

	if outputJSON {
		return writeJSON(out, files)
	}

	if len(files.Files) == 0 {
		fmt.Fprintln(out, "No files uploaded.")
		return nil
	}
	for _, f := range files.Files {
		fmt.Fprintln(out, f)
	}
	fmt.Fprintf(out, "\n%d file(s)\n", files.Count)
	return nil
}

func fetchFiles(api *APIClient) (*FilesResponse, error) {
	resp, err := api.Get("/files")
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	var files FilesResponse
	if err := json.Unmarshal(resp.Data, &files); err != nil {
		return nil, fmt.Errorf("failed to parse files: %w", err)
	}
	return &files, nil
}

// DocumentsCmd creates the documents command.
func DocumentsCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "documents",
		Short: "List documents and their ingestion status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runDocuments(api, limit, cursor, cmd.OutOrStdout(), outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of documents")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runDocuments(api *APIClient, limit int, cursor string, out io.Writer, outputJSON bool) error {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	path := "/documents"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	var page DocumentPage
	if err := json.Unmarshal(resp.Data, &page); err != nil {
		return fmt.Errorf("failed to parse documents: %w", err)
	}

	if outputJSON {
		return writeJSON(out, page)
	}

	if len(page.Items) == 0 {
		fmt.Fprintln(out, "No documents found.")
		return nil
	}

	for _, d := range page.Items {
		fmt.Fprintf(out, "%-40s %-10s %-8s %4d chunks\n", d.Key, d.Status, d.FileType, d.ChunkCount)
		if d.Error != "" {
			fmt.Fprintf(out, "  error: %s\n", d.Error)
		}
	}
	if page.HasMore && page.Cursor != "" {
		fmt.Fprintf(out, "\n%s\n", strings.Repeat("-", 40))
		fmt.Fprintf(out, "More documents available. Use --cursor %s\n", page.Cursor)
	}
	return nil
}

// StatusCmd creates the status command.
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <key>",
		Short: "Show a document's ingestion status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runStatus(api, args[0], cmd.OutOrStdout(), outputJSON)
		},
	}
}

func runStatus(api *APIClient, key string, out io.Writer, outputJSON bool) error {
	resp, err := api.Get("/documents/" + url.PathEscape(key))
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}

	if outputJSON {
		return writeJSON(out, doc)
	}

	fmt.Fprintf(out, "Key:       %s\n", doc.Key)
	fmt.Fprintf(out, "Type:      %s\n", doc.FileType)
	fmt.Fprintf(out, "Size:      %d bytes\n", doc.SizeBytes)
	fmt.Fprintf(out, "Status:    %s\n", doc.Status)
	fmt.Fprintf(out, "Chunks:    %d\n", doc.ChunkCount)
	fmt.Fprintf(out, "Uploaded:  %s\n", doc.UploadedAt)
	if doc.ProcessedAt != "" {
		fmt.Fprintf(out, "Processed: %s\n", doc.ProcessedAt)
	}
	if doc.Error != "" {
		fmt.Fprintf(out, "Error:     %s\n", doc.Error)
	}
	return nil
}
