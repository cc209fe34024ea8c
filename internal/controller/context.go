package controller

import (
	"context"

	"github.com/roomcast/roomcast/internal/repository/connection"
)

type contextKey int

const identityCtxKey contextKey = iota

func (c controller) getIdentityFromCtx(ctx context.Context) connection.Identity {
	identity, ok := ctx.Value(identityCtxKey).(connection.Identity)
	if !ok {
		return connection.Identity{}
	}

	return identity
}
