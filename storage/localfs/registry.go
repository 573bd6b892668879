package localfs

import (
	"encoding/json"
	"flag"

	"clehr.dev/recordkit/storage"
	"clehr.dev/recordkit/storage/registry"
	"clehr.dev/recordkit/terminology"
)

var flagRoot string

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "localfs",
		Description: "Store records and canonical archives under a local directory.",
		Usage:       registry.UsageCLI | registry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagRoot, "localfs-root", "", "Root directory for the localfs backend.")
		},
		Open: func() (storage.RawStore, func() error, error) {
			s, err := New[json.RawMessage](flagRoot, terminology.NewLocalService())
			if err != nil {
				return nil, nil, err
			}
			return s, nil, nil
		},
	})
}
