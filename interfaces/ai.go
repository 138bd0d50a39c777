package interfaces

import "context"

// AIProvider is the text-generation collaborator. Implementations wrap the
// provider call in the bounded retry policy; an error here means attempts
// were exhausted and is fatal for the current item.
type AIProvider interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
}
