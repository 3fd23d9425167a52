package main

import (
	"flag"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/kgh/memscramble/internal/config"
	"github.com/kgh/memscramble/internal/match"
	"github.com/kgh/memscramble/internal/transport/httpapi"
	"github.com/kgh/memscramble/internal/transport/ws"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file (optional)")
	flag.Parse()

	if *configPath != "" {
		if err := config.Load(*configPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	cfg := config.Get()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	lobby := match.NewLobby(logger)
	wsServer := ws.NewServer(lobby, logger)
	router := httpapi.NewRouter(lobby, wsServer, logger)

	logger.Info("listening", zap.String("addr", cfg.ListenAddr))
	if err := http.ListenAndServe(cfg.ListenAddr, router); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	zc := zap.NewProductionConfig()
	zc.Level = lvl
	return zc.Build()
}
