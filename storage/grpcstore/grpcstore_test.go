package grpcstore

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"clehr.dev/recordkit/storage"
	"clehr.dev/recordkit/storage/memstore"
	"clehr.dev/recordkit/storage/testkit"
	"clehr.dev/recordkit/terminology"
)

// newBufconnStore serves a fresh memstore over bufconn and returns a
// connected client.
func newBufconnStore(t *testing.T) *Client {
	t.Helper()
	ts := terminology.NewLocalService()

	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	RegisterRecordStoreServer(srv, &Server{
		Store: memstore.New[json.RawMessage](ts),
		Terms: ts,
	})
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.Dial() }
	cc, err := grpc.DialContext(
		context.Background(),
		"bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("DialContext: %v", err)
	}
	t.Cleanup(func() { _ = cc.Close() })

	return &Client{cc: cc, client: NewRecordStoreClient(cc), ts: ts, Timeout: 5 * time.Second}
}

func TestGRPCStoreConformance(t *testing.T) {
	testkit.RunRecordStoreConformance(t, func(t *testing.T) storage.RawStore {
		return newBufconnStore(t)
	})
}
