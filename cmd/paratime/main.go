package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/rs/zerolog"

	paratime "github.com/paratimelabs/paratime"
	"github.com/paratimelabs/paratime/host"
	"github.com/paratimelabs/paratime/keymanager"
	"github.com/paratimelabs/paratime/keyvalue"
	"github.com/paratimelabs/paratime/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "paratime: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	v, err := getViper()
	if err != nil {
		return err
	}

	if v.GetBool(versionKey) {
		fmt.Printf("%s@%s\n", paratime.Name, paratime.Version)
		return nil
	}

	level, err := zerolog.ParseLevel(v.GetString(logLevelKey))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	db, err := openDB(v.GetString(dbBackendKey), v.GetString(dbDirKey))
	if err != nil {
		return err
	}
	store := storage.New(db)
	defer func() { _ = store.Close() }()

	seed, err := keyManagerSeed(v.GetString(seedKey))
	if err != nil {
		return err
	}
	km, err := keymanager.NewLocalClient(seed)
	if err != nil {
		return err
	}

	d := paratime.NewDispatcher(logger)
	app := keyvalue.New(v.GetString(runtimeIDKey), km, logger)
	app.Register(d)

	runtime := host.NewRuntime(d, store, logger)
	handler, err := host.NewHandler(runtime)
	if err != nil {
		return err
	}

	addr := v.GetString(listenKey)
	logger.Info().Str("addr", addr).Str("version", paratime.Version).Msg("serving runtime")
	return http.ListenAndServe(addr, handler)
}

func openDB(backend, dir string) (dbm.DB, error) {
	switch backend {
	case "memdb":
		return dbm.NewMemDB(), nil
	case "goleveldb":
		return dbm.NewGoLevelDB(paratime.Name, dir)
	default:
		return nil, fmt.Errorf("unsupported db backend: %s", backend)
	}
}

func keyManagerSeed(encoded string) ([]byte, error) {
	if encoded == "" {
		seed := make([]byte, 32)
		if _, err := rand.Read(seed); err != nil {
			return nil, err
		}
		return seed, nil
	}

	seed, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("malformed key manager seed: %w", err)
	}
	return seed, nil
}
