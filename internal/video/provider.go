package video

import (
	"context"
	"errors"
)

var (
	ErrRoomCreateFailed = errors.New("video room creation failed")
	ErrCodeIssueFailed  = errors.New("video guest code issuance failed")
	ErrEmptyJoinCode    = errors.New("video provider returned empty join code")
)

// Provider creates a meeting room for a virtual appointment and returns the
// guest join code for it. The raw room id stays inside the provider; only the
// join code is ever persisted or shown to users.
type Provider interface {
	ProvisionRoom(ctx context.Context, seed string) (string, error)
}
