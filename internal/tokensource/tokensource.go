package tokensource

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// New reads the key from store and returns a token source that yields it as
// a bearer token. It returns a nil source when no key is stored.
func New(ctx context.Context, store Store) (oauth2.TokenSource, error) {
	if store == nil {
		return nil, fmt.Errorf("token store cannot be nil")
	}

	key, err := store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read API key: %w", err)
	}
	if key == "" {
		return nil, nil
	}

	return FromKey(key), nil
}

// FromKey returns a token source for a static API key. The token never
// expires.
func FromKey(key string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: key,
		TokenType:   "Bearer",
	})
}
