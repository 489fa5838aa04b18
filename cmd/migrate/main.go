// migrate applies the embedded SQL schema migrations.
// Usage: go run ./cmd/migrate [-direction up|down], or ./scripts/migrate.sh.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"tella/app/internal/config"
	"tella/app/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fail("config:", err)
	}

	err = migrate.Run(cfg.DatabaseURL, *direction)
	switch {
	case err == nil:
	case errors.Is(err, migrate.ErrNoChange):
		// Schema already at the target version.
	default:
		fail("migrate:", err)
	}
}

func fail(prefix string, err error) {
	fmt.Fprintln(os.Stderr, prefix, err)
	os.Exit(1)
}
