package data

import (
	"context"
	"fmt"
	"strings"

	"github.com/failsafe-go/failsafe-go"

	"github.com/DevRickLin/tg-resender/internal/biz/repo"
	"github.com/DevRickLin/tg-resender/internal/infra/exectool"
	"github.com/DevRickLin/tg-resender/internal/infra/openai"
)

// execRewriterRepo implements the Rewriter repository with an external command.
// The text is the last positional argument; directives follow as --additional.
type execRewriterRepo struct {
	tool *exectool.Client
}

// NewExecRewriterRepo creates a subprocess-backed Rewriter repository
func NewExecRewriterRepo(tool *exectool.Client) repo.RewriterRepo {
	if tool == nil {
		return nil
	}
	return &execRewriterRepo{tool: tool}
}

// Rewrite runs the rewriter; output on stderr counts as failure
func (r *execRewriterRepo) Rewrite(ctx context.Context, text string, directives []string) (string, error) {
	args := []string{text}
	if additional := joinDirectives(directives); additional != "" {
		args = append(args, "--additional", additional)
	}

	res, err := r.tool.Run(ctx, args...)
	if err != nil {
		if res != nil && res.Stderr != "" {
			return "", fmt.Errorf("rewriter: %w: %s", err, res.Stderr)
		}
		return "", fmt.Errorf("rewriter: %w", err)
	}
	if res.Stderr != "" {
		return "", fmt.Errorf("rewriter wrote to stderr: %s", res.Stderr)
	}
	return res.Stdout, nil
}

const rewritePrompt = `You rewrite news posts for a youth audience.
Retell the user's post in a casual, playful register with modern internet slang.
Keep every fact, name, number and link. Keep the paragraph breaks and the language of the original.
Reply with the rewritten post only. If the post cannot be rewritten, reply with the single word None.`

// openaiRewriterRepo implements the Rewriter repository with an OpenAI-compatible model
type openaiRewriterRepo struct {
	client   *openai.Client
	executor failsafe.Executor[string]
}

// NewOpenAIRewriterRepo creates a model-backed Rewriter repository
func NewOpenAIRewriterRepo(client *openai.Client) repo.RewriterRepo {
	if client == nil {
		return nil
	}
	return newOpenAIRewriterRepo(client, defaultRetryConfig)
}

func newOpenAIRewriterRepo(client *openai.Client, retry retryConfig) *openaiRewriterRepo {
	return &openaiRewriterRepo{
		client:   client,
		executor: failsafe.With(newRetryPolicy[string](retry)),
	}
}

// Rewrite asks the model for the rewritten text
func (r *openaiRewriterRepo) Rewrite(ctx context.Context, text string, directives []string) (string, error) {
	system := rewritePrompt
	if additional := joinDirectives(directives); additional != "" {
		system += "\n\nAdditional requirements: " + additional
	}

	out, err := r.executor.WithContext(ctx).Get(func() (string, error) {
		return r.client.Chat(ctx, openai.ChatRequest{
			System:      system,
			User:        text,
			Temperature: 0.8,
		})
	})
	if err != nil {
		return "", fmt.Errorf("rewriter: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func joinDirectives(directives []string) string {
	return strings.TrimSpace(strings.Join(directives, " "))
}
