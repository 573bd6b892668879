package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"clehr.dev/recordkit/storage/grpcstore"
	"clehr.dev/recordkit/storage/registry"
	"clehr.dev/recordkit/terminology"

	_ "clehr.dev/recordkit/storage/localfs"
)

func main() {
	fs := flag.NewFlagSet("clehr-storegrpcd", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7677", "listen address")
	backend := fs.String("backend", "localfs", "record store backend name")
	listBackends := fs.Bool("list-backends", false, "List supported backends and exit")
	debug := fs.Bool("debug", false, "Enable debug logging")

	registry.RegisterFlags(fs, registry.UsageDaemon)

	_ = fs.Parse(os.Args[1:])
	if *listBackends {
		for _, b := range registry.List(registry.UsageDaemon) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(os.Stdout, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(os.Stdout, "%s\t%s\n", b.Name, b.Description)
		}
		return
	}

	logCfg := zap.NewProductionConfig()
	if *debug {
		logCfg = zap.NewDevelopmentConfig()
	}
	log, err := logCfg.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	store, closeFn, err := registry.Open(*backend, registry.UsageDaemon)
	if err != nil {
		log.Error("open backend", zap.String("backend", *backend), zap.Error(err))
		os.Exit(2)
	}
	if closeFn != nil {
		defer closeFn()
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		log.Error("listen", zap.String("addr", *listen), zap.Error(err))
		os.Exit(1)
	}
	defer lis.Close()

	s := grpc.NewServer()
	grpcstore.RegisterRecordStoreServer(s, &grpcstore.Server{
		Store: store,
		Terms: terminology.NewLocalService(),
	})

	log.Info("clehr-storegrpcd listening",
		zap.String("addr", lis.Addr().String()),
		zap.String("backend", *backend))
	if err := s.Serve(lis); err != nil {
		log.Error("serve", zap.Error(err))
		os.Exit(1)
	}
}
