package adapter

import (
	"context"
	"fmt"
	"io"
)

// Authorizer is the host-provided credential hand-off for the pro tier.
// The only observable outcome of RequestCredential is a later HasCredential
// check: the flow cannot distinguish completion from dismissal.
type Authorizer interface {
	HasCredential(ctx context.Context) (bool, error)
	RequestCredential(ctx context.Context) error
}

// EnvAuthorizer treats a pre-supplied API key as the credential. It cannot
// open a picker; RequestCredential prints instructions instead.
type EnvAuthorizer struct {
	APIKey string
	Out    io.Writer
}

func (a *EnvAuthorizer) HasCredential(ctx context.Context) (bool, error) {
	return a.APIKey != "", nil
}

func (a *EnvAuthorizer) RequestCredential(ctx context.Context) error {
	if a.Out != nil {
		fmt.Fprintln(a.Out, "Set GEMINI_API_KEY to a paid-tier API key to use the pro model.")
	}
	return nil
}

// NopAuthorizer is the default when the host provides no authorization hook.
// It reports the credential as present and does nothing on request.
type NopAuthorizer struct{}

func (NopAuthorizer) HasCredential(ctx context.Context) (bool, error) { return true, nil }
func (NopAuthorizer) RequestCredential(ctx context.Context) error     { return nil }
