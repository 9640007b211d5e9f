package transport

import (
	"context"

	"github.com/shrtyk/raft-failover/api"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var _ api.Dialer[*grpc.ClientConn] = (*GRPCDialer)(nil)

// GRPCDialer creates one *grpc.ClientConn per node.
// grpc.NewClient does not connect eagerly, so unreachable nodes surface as
// codes.Unavailable on the first call rather than from Dial.
type GRPCDialer struct {
	opts []grpc.DialOption
}

// NewGRPCDialer returns a dialer using opts, or insecure transport
// credentials when opts is empty.
func NewGRPCDialer(opts ...grpc.DialOption) *GRPCDialer {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	return &GRPCDialer{opts: opts}
}

func (d *GRPCDialer) Dial(_ context.Context, address string) (*grpc.ClientConn, error) {
	return grpc.NewClient(address, d.opts...)
}

func (d *GRPCDialer) Undial(conn *grpc.ClientConn) error {
	return conn.Close()
}
