package ai

import "context"

// Runtime is implemented by chat backends. *Client satisfies it; tests and
// alternative providers can supply their own.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

var _ Runtime = (*Client)(nil)

// RuntimeFunc adapts a function to Runtime.
type RuntimeFunc func(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

func (f RuntimeFunc) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	return f(ctx, req)
}
