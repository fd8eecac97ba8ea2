package llm

import "context"

// Completion is the text payload of a single LLM reply.
type Completion struct {
	Content string
	Model   string
}

// Completer is the interface the pipeline depends on: prompt in, reply text out.
type Completer interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (Completion, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (Completion, error) {
	return f(ctx, prompt)
}
