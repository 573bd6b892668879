package grpcstore

import (
	"flag"
	"time"

	"clehr.dev/recordkit/storage"
	"clehr.dev/recordkit/storage/registry"
	"clehr.dev/recordkit/terminology"
)

var (
	flagTarget      string
	flagDialTimeout time.Duration
	flagRPCTimeout  time.Duration
	flagMaxMsgBytes int
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "grpc",
		Description: "Use a remote record store served over gRPC.",
		Usage:       registry.UsageCLI,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagTarget, "grpc-target", "", "Target address of the record store service.")
			fs.DurationVar(&flagDialTimeout, "grpc-dial-timeout", 10*time.Second, "Timeout for the initial dial.")
			fs.DurationVar(&flagRPCTimeout, "grpc-timeout", 30*time.Second, "Per-RPC timeout.")
			fs.IntVar(&flagMaxMsgBytes, "grpc-max-msg-bytes", 0, "Max gRPC message size in bytes (0 = default).")
		},
		Open: func() (storage.RawStore, func() error, error) {
			c, err := Dial(flagTarget, terminology.NewLocalService(), DialOptions{
				Timeout:     flagDialTimeout,
				MaxMsgBytes: flagMaxMsgBytes,
			})
			if err != nil {
				return nil, nil, err
			}
			c.Timeout = flagRPCTimeout
			return c, c.Close, nil
		},
	})
}
