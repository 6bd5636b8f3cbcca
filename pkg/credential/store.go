// Package credential persists the procurement API token pair.
package credential

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when nothing has been saved yet
var ErrNotFound = errors.New("credential: no token state stored")

// TokenState is the OAuth token pair of the procurement API
type TokenState struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Complete reports whether both tokens are present
func (s TokenState) Complete() bool {
	return s.AccessToken != "" && s.RefreshToken != ""
}

// Store loads and saves the token pair. Save is only called after a
// successful refresh.
type Store interface {
	Load(ctx context.Context) (TokenState, error)
	Save(ctx context.Context, state TokenState) error
}
