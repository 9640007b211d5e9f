package api

import "context"

// SubmitResult describes a command accepted by the cluster leader.
type SubmitResult struct {
	Term     int64
	LogIndex int64
}

// Coordinator is a client for the cluster service that always talks to the
// current leader.
type Coordinator interface {
	Submit(ctx context.Context, cmd []byte) (*SubmitResult, error)
	Read(ctx context.Context, query []byte) ([]byte, error)
	Close() error
}
