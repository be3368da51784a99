package salesforce

import (
	"crypto/tls"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/keepalive"
)

const maxRecvBytes = 64 << 20

// DialBroker opens a TLS channel to the event broker with keepalive tuned
// for long-lived idle subscriptions.
func DialBroker(host string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(host,
		grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                30 * time.Second,
			Timeout:             10 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(maxRecvBytes)),
	)
	if err != nil {
		return nil, fmt.Errorf("dial broker %s: %w", host, err)
	}
	return conn, nil
}
