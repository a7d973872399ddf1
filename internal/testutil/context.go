package testutil

import (
	"context"

	"github.com/masseurmatch/masseurmatch/internal/types"
)

// DefaultUserID is the authenticated user in contexts built by SetupContext
const DefaultUserID = "00000000-0000-0000-0000-000000000001"

func SetupContext() context.Context {
	return SetupContextForUser(DefaultUserID)
}

func SetupContextForUser(userID string) context.Context {
	ctx := context.Background()
	ctx = types.SetUserID(ctx, userID)
	ctx = types.SetRequestID(ctx, types.GenerateUUID())
	return ctx
}
