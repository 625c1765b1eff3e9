package repo

import "context"

// RewriterRepo is the tone rewriting backend.
// It returns the raw backend output; judging it is up to the caller.
type RewriterRepo interface {
	Rewrite(ctx context.Context, text string, directives []string) (string, error)
}
