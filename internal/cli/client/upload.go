package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cloo-solutions/docchat/internal/cli"
	"github.com/cloo-solutions/docchat/internal/domain"
	"github.com/spf13/cobra"
)

// UploadedFile describes one stored upload.
type UploadedFile struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	FileType string `json:"file_type"`
	Size     int64  `json:"size"`
}

// UploadResponse represents the upload API response.
type UploadResponse struct {
	Uploaded []UploadedFile `json:"uploaded"`
	Message  string         `json:"message"`
}

// UploadFailure records a file the server rejected.
type UploadFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// UploadSummary is the command's JSON output.
type UploadSummary struct {
	Uploaded []UploadedFile  `json:"uploaded"`
	Failed   []UploadFailure `json:"failed,omitempty"`
}

// UploadCmd creates the upload command.
func UploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <path>...",
		Short: "Upload documents",
		Long: `Uploads documents to the server's blob store.

Each argument is a file, a directory, or a glob pattern. Directories are
searched recursively for PDF, text, Markdown, and DOCX files. Patterns
support ** to match across directories.

Examples:
  docchat upload handbook.pdf
  docchat upload ./docs
  docchat upload 'reports/**/*.pdf'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			paths, err := expandUploadPaths(args)
			if err != nil {
				return err
			}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runUpload(api, paths, cmd.OutOrStdout(), cmd.ErrOrStderr(), outputJSON)
		},
	}

	return cmd
}

// expandUploadPaths resolves files, directories, and glob patterns into a
// deduplicated list of file paths in argument order.
func expandUploadPaths(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		switch {
		case err == nil && info.IsDir():
			matches, err := doublestar.FilepathGlob(filepath.Join(arg, "**", "*"), doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("failed to search %s: %w", arg, err)
			}
			for _, m := range matches {
				if domain.DetectFileType(m) != domain.FileTypeUnsupported {
					add(m)
				}
			}
		case err == nil:
			add(arg)
		case os.IsNotExist(err):
			matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no files match %s", arg)
			}
			for _, m := range matches {
				add(m)
			}
		default:
			return nil, fmt.Errorf("failed to read %s: %w", arg, err)
		}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no supported documents found")
	}
	return paths, nil
}

func runUpload(api *APIClient, paths []string, out, progress io.Writer, outputJSON bool) error {
	summary := UploadSummary{Uploaded: []UploadedFile{}}

	bar := cli.NewProgressBar(progress, len(paths), "Uploading")
	for _, p := range paths {
		uploaded, err := uploadOne(api, p)
		if err != nil {
			summary.Failed = append(summary.Failed, UploadFailure{Path: p, Error: err.Error()})
		} else {
			summary.Uploaded = append(summary.Uploaded, uploaded...)
		}
		_ = bar.Add(1)
	}

	if outputJSON {
		if err := writeJSON(out, summary); err != nil {
			return err
		}
	} else {
		for _, f := range summary.Uploaded {
			fmt.Fprintf(out, "%s (%s, %d bytes)\n", f.Name, f.FileType, f.Size)
		}
		for _, f := range summary.Failed {
			fmt.Fprintf(out, "%s: failed: %s\n", f.Path, f.Error)
		}
		fmt.Fprintf(out, "Uploaded %d file(s)\n", len(summary.Uploaded))
	}

	if len(summary.Failed) > 0 {
		return fmt.Errorf("%d of %d uploads failed", len(summary.Failed), len(paths))
	}
	return nil
}

func uploadOne(api *APIClient, path string) ([]UploadedFile, error) {
	resp, err := api.UploadFile(path)
	if err != nil {
		return nil, err
	}

	var uploadResp UploadResponse
	if err := json.Unmarshal(resp.Data, &uploadResp); err != nil {
		return nil, fmt.Errorf("failed to parse upload response: %w", err)
	}
	return uploadResp.Uploaded, nil
}
