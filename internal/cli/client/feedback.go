package client

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// FeedbackRequest represents the chat feedback API request.
type FeedbackRequest struct {
	ChatID  string `json:"chat_id"`
	Helpful bool   `json:"helpful"`
	Comment string `json:"comment,omitempty"`
}

// FeedbackCmd creates the feedback command.
func FeedbackCmd() *cobra.Command {
	var (
		helpful    bool
		notHelpful bool
		comment    string
	)

	cmd := &cobra.Command{
		Use:   "feedback <chat_id>",
		Short: "Rate an answer",
		Long: `Records whether an answer was helpful. The chat ID is printed after each answer.

Examples:
  docchat feedback 3f6c... --helpful
  docchat feedback 3f6c... --not-helpful --comment "cited the wrong policy"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := FeedbackRequest{ChatID: args[0], Helpful: helpful, Comment: comment}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runFeedback(api, req, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&helpful, "helpful", false, "Mark the answer as helpful")
	cmd.Flags().BoolVar(&notHelpful, "not-helpful", false, "Mark the answer as not helpful")
	cmd.Flags().StringVarP(&comment, "comment", "c", "", "Optional comment")
	cmd.MarkFlagsOneRequired("helpful", "not-helpful")
	cmd.MarkFlagsMutuallyExclusive("helpful", "not-helpful")

	return cmd
}

func runFeedback(api *APIClient, req FeedbackRequest, out io.Writer) error {
	if _, err := api.Post("/chat/feedback", req); err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}
	fmt.Fprintf(out, "Feedback recorded for %s\n", req.ChatID)
	return nil
}
