package main

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"

	"bridge/internal/ports/nakama"
)

// InitModule proxies Nakama initialization to the nakama adapter package.
// Build with -buildmode=plugin.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	return nakama.InitModule(ctx, logger, db, nk, initializer)
}

// main keeps `go build ./...` working; Nakama only calls InitModule.
func main() {}
