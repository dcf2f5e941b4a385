package auth

import (
	"context"

	"github.com/jw6ventures/punchclock/internal/store"
)

type contextKey string

const contextKeyCredential contextKey = "credential"

func WithCredential(ctx context.Context, cred *store.Credential) context.Context {
	return context.WithValue(ctx, contextKeyCredential, cred)
}

func CredentialFromContext(ctx context.Context) (*store.Credential, bool) {
	c, ok := ctx.Value(contextKeyCredential).(*store.Credential)
	return c, ok && c != nil
}
