package app

import (
	"os"

	"pyrelax/internal/adapters"
	"pyrelax/internal/ports"
)

type Service struct {
	Manifest ports.ManifestPort
	Resolver ports.ResolverPort
	Staging  ports.StagingPort
	Lockfile ports.LockfilePort
	Output   ports.OutputPort
}

func NewService() Service {
	return Service{
		Manifest: adapters.NewManifestTOMLAdapter(),
		Resolver: adapters.NewPoetryCLIAdapter("", false),
		Staging:  adapters.NewStagingAdapter(),
		Lockfile: adapters.NewLockReaderAdapter(),
		Output:   adapters.NewConsoleOutputAdapter(os.Stdout),
	}
}
