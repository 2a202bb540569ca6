package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// ChatRequest represents the chat API request.
type ChatRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// Source is a retrieved chunk cited by an answer.
type Source struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

// ReasoningStep is one timed phase of answering.
type ReasoningStep struct {
	Step     string `json:"step"`
	Details  string `json:"details"`
	Duration string `json:"duration"`
}

// ChatAnswer represents a complete answer, whether returned whole or
// assembled from a stream.
type ChatAnswer struct {
	Answer          string          `json:"answer"`
	Sources         []Source        `json:"sources"`
	GroundingScore  float64         `json:"grounding_score"`
	IsGrounded      bool            `json:"is_grounded"`
	GroundingMethod string          `json:"grounding_method"`
	Strategy        string          `json:"strategy"`
	ReasoningLog    []ReasoningStep `json:"reasoning_log"`
	ChatID          string          `json:"chat_id,omitempty"`
}

// StreamError is an error event sent after the stream started.
type StreamError struct {
	Message string
	Code    string
}

func (e *StreamError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("stream error (%s): %s", e.Code, e.Message)
	}
	return "stream error: " + e.Message
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var (
		stream    bool
		topK      int
		reasoning bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about the indexed documents",
		Long: `Answers a question from the indexed documents and lists the sources used.

Examples:
  docchat ask "What is the refund policy?"
  docchat ask --stream --top-k 8 "Summarize the onboarding guide"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return fmt.Errorf("question cannot be empty")
			}
			if cmd.Flags().Changed("top-k") && topK <= 0 {
				return fmt.Errorf("--top-k must be positive")
			}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			req := ChatRequest{Query: query, TopK: topK}
			opts := askOptions{stream: stream && !outputJSON, reasoning: reasoning, outputJSON: outputJSON}
			return runAsk(cmd.Context(), api, req, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&stream, "stream", "s", false, "Print the answer as it is generated")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of chunks to retrieve (server default when unset)")
	cmd.Flags().BoolVarP(&reasoning, "reasoning", "r", false, "Print the reasoning log")

	return cmd
}

type askOptions struct {
	stream     bool
	reasoning  bool
	outputJSON bool
}

func runAsk(ctx context.Context, api *APIClient, req ChatRequest, opts askOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		answer *ChatAnswer
		err    error
	)
	if opts.stream {
		answer, err = streamAnswer(ctx, api, req, out)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
	} else {
		answer, err = fetchAnswer(api, req)
		if err != nil {
			return err
		}
		if opts.outputJSON {
			return writeJSON(out, answer)
		}
		fmt.Fprintln(out, answer.Answer)
	}

	printAnswerDetails(out, answer, opts.reasoning)
	return nil
}

func fetchAnswer(api *APIClient, req ChatRequest) (*ChatAnswer, error) {
	resp, err := api.Post("/chat", req)
	if err != nil {
		return nil, fmt.Errorf("chat failed: %w", err)
	}

	var answer ChatAnswer
	if err := json.Unmarshal(resp.Data, &answer); err != nil {
		return nil, fmt.Errorf("failed to parse answer: %w", err)
	}
	return &answer, nil
}

// streamAnswer writes content deltas to out as they arrive and assembles
// the full answer from the stream's events.
func streamAnswer(ctx context.Context, api *APIClient, req ChatRequest, out io.Writer) (*ChatAnswer, error) {
	var (
		answer  ChatAnswer
		content strings.Builder
		done    bool
	)

	err := api.PostStream(ctx, "/chat/stream", req, func(event StreamEvent) error {
		switch event.Type {
		case "content":
			content.WriteString(event.Content)
			fmt.Fprint(out, event.Content)
		case "sources":
			answer.Sources = event.Sources
		case "reasoning":
			answer.ReasoningLog = event.ReasoningLog
			answer.GroundingScore = event.GroundingScore
			answer.IsGrounded = event.IsGrounded
			answer.GroundingMethod = event.GroundingMethod
			answer.Strategy = event.Strategy
		case "done":
			answer.ChatID = event.ChatID
			done = true
		case "error":
			return &StreamError{Message: event.Error, Code: event.Code}
		}
		return nil
	})
	if err != nil {
		var streamErr *StreamError
		if errors.As(err, &streamErr) {
			fmt.Fprintln(out)
		}
		return nil, fmt.Errorf("chat failed: %w", err)
	}
	if !done {
		return nil, fmt.Errorf("chat failed: stream ended before completion")
	}

	answer.Answer = content.String()
	return &answer, nil
}

func printAnswerDetails(out io.Writer, answer *ChatAnswer, reasoning bool) {
	if len(answer.Sources) > 0 {
		fmt.Fprintf(out, "\nSources:\n")
		for i, s := range answer.Sources {
			fmt.Fprintf(out, "%d. %s\n", i+1, s.Source)
			if excerpt := excerptOf(s.Content, 100); excerpt != "" {
				fmt.Fprintf(out, "   %s\n", excerpt)
			}
		}
	}

	grounded := "no"
	if answer.IsGrounded {
		grounded = "yes"
	}
	fmt.Fprintf(out, "\nGrounded: %s (score %.2f, %s)\n", grounded, answer.GroundingScore, answer.GroundingMethod)

	if reasoning && len(answer.ReasoningLog) > 0 {
		fmt.Fprintf(out, "\nReasoning (%s):\n", answer.Strategy)
		for _, step := range answer.ReasoningLog {
			fmt.Fprintf(out, "  %-12s %7s  %s\n", step.Step, step.Duration, step.Details)
		}
	}

	if answer.ChatID != "" {
		fmt.Fprintf(out, "\nChat ID: %s\n", answer.ChatID)
	}
}

func excerptOf(content string, max int) string {
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if len(runes) > max {
		return string(runes[:max-3]) + "..."
	}
	return content
}
