package assistant

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/ecomenu/internal/ai"
)

// ConfigurationError reports a setting that prevents the assistant from
// being built, typically the missing API key.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("assistant not configured: %s: %s", e.Setting, e.Reason)
}

// RemoteServiceError wraps any failure of the chat-completion call.
type RemoteServiceError struct {
	Err error
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("chat service failed: %v", e.Err)
}

func (e *RemoteServiceError) Unwrap() error { return e.Err }

// Hint returns a short user-facing explanation with a suggested action.
func (e *RemoteServiceError) Hint() string {
	var (
		authErr *ai.AuthError
		rlErr   *ai.RateLimitError
		nfErr   *ai.ModelNotFoundError
		brErr   *ai.BadRequestError
		qErr    *ai.QuotaExceededError
		sErr    *ai.ServerError
		unreach *ai.UnreachableError
		tmo     *ai.TimeoutError
	)
	switch {
	case errors.As(e.Err, &tmo):
		return "The chat endpoint did not answer in time. Raise http_timeout_sec or retry."
	case errors.As(e.Err, &unreach):
		return "The chat endpoint is unreachable. Check your network and base_url."
	case errors.As(e.Err, &authErr):
		return "Authentication failed. Set OPENAI_API_KEY or api_key in ~/.ecomenu/config.yaml."
	case errors.As(e.Err, &qErr):
		return "Quota or billing issue. Check your provider account."
	case errors.As(e.Err, &rlErr):
		if rlErr.RetryAfter > 0 {
			return fmt.Sprintf("Rate limited. Try again in about %ds.", int(rlErr.RetryAfter.Seconds()))
		}
		return "Rate limited by the provider. Please retry."
	case errors.As(e.Err, &nfErr):
		return "Model not found. Verify the model setting."
	case errors.As(e.Err, &brErr):
		return "The request was rejected. Try a shorter conversation or reset it."
	case errors.As(e.Err, &sErr):
		return "The provider appears unavailable. Please retry later."
	case errors.Is(e.Err, errEmptyReply):
		return "The model returned no answer. Please retry."
	}
	return "The chat request failed. Please retry."
}

var errEmptyReply = errors.New("no content returned from model")
