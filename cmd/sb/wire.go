package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/zulandar/switchboard/internal/backend"
	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/db"
	"github.com/zulandar/switchboard/internal/engine"
	"github.com/zulandar/switchboard/internal/extract"
	"github.com/zulandar/switchboard/internal/stage"
	"github.com/zulandar/switchboard/internal/transcript"
)

// defaultConfigPath is the config file looked for when -c is not given.
const defaultConfigPath = "switchboard.yaml"

// loadConfig reads the config file, falling back to built-in defaults
// when the default path does not exist.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

// buildEngine wires the full conversation stack from config: database,
// backend store, extraction gateway, stage manager, and turn sinks.
func buildEngine(cfg *config.Config, logOut io.Writer) (*engine.Router, *backend.Store, *gorm.DB, error) {
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return nil, nil, nil, err
	}

	store, err := backend.NewStore(gormDB)
	if err != nil {
		return nil, nil, nil, err
	}

	apiKey := cfg.APIKey()
	if apiKey == "" {
		return nil, nil, nil, fmt.Errorf("no API key found: set %s", cfg.LLM.APIKeyEnv)
	}
	client, err := extract.NewHTTPClient(extract.HTTPClientOpts{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		APIKey:      apiKey,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		MaxRetries:  cfg.LLM.MaxRetries,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	gateway, err := extract.NewGateway(client)
	if err != nil {
		return nil, nil, nil, err
	}

	stages, err := stage.NewManager(stage.ManagerOpts{})
	if err != nil {
		return nil, nil, nil, err
	}

	dbSink, err := engine.NewDBSink(gormDB)
	if err != nil {
		return nil, nil, nil, err
	}
	sinks := []engine.TurnSink{dbSink}
	if cfg.Transcripts.Enabled {
		fileSink, err := transcript.NewWriter(cfg.Transcripts.Dir)
		if err != nil {
			return nil, nil, nil, err
		}
		sinks = append(sinks, fileSink)
	}

	router, err := engine.NewRouter(engine.RouterOpts{
		Gateway:   gateway,
		Backend:   store,
		Stages:    stages,
		Sink:      engine.NewMultiSink(sinks...),
		LogOutput: logOut,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return router, store, gormDB, nil
}
