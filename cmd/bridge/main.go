package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"homekit-bridge/internal/adapters/input/hapserver"
	"homekit-bridge/internal/adapters/output/homeassistant"
	"homekit-bridge/internal/adapters/output/persistence"
	"homekit-bridge/internal/domain/accessories"
	"homekit-bridge/internal/domain/aid"
	"homekit-bridge/internal/domain/model"
	"homekit-bridge/internal/domain/schedule"
	"homekit-bridge/internal/domain/service"
	"homekit-bridge/internal/ports"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the configuration file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if *debug {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("loading configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := homeassistant.NewClient(cfg.HassURL, cfg.HassToken, log)
	if err := hub.Connect(ctx); err != nil {
		log.Fatal().Err(err).Msg("connecting to the hub")
	}

	exec := schedule.NewExecutor()
	store := persistence.NewJSONAidStore(filepath.Join(cfg.DataDir, "accessory_ids.json"))
	alloc, err := aid.NewAllocator(store, exec, log)
	if err != nil {
		log.Fatal().Err(err).Msg("loading accessory ids")
	}

	pub := hapserver.NewServer(cfg.DataDir, cfg.Pin, cfg.Port, log)
	deps := accessories.Deps{Hub: hub, Exec: exec, Log: log, Unit: cfg.TemperatureUnit}
	bridge := service.NewBridge(hub, alloc, pub, cfg, deps, log)

	if err := bridge.Setup(ctx); err != nil {
		log.Fatal().Err(err).Msg("building accessories")
	}
	if err := bridge.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("starting bridge")
	}
	log.Info().Str("name", cfg.Name).Str("pin", cfg.Pin).Int("accessories", bridge.Count()).Msg("bridge running")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutting down")
	bridge.Stop()
	cancel()
	exec.CancelAll()
	if err := alloc.Flush(); err != nil {
		log.Error().Err(err).Msg("saving accessory ids")
	}
}

func loadConfig(path string) (*model.Config, error) {
	cfg := &model.Config{
		Name:            "HomeKit Bridge",
		Pin:             "031-45-154",
		DataDir:         "./data",
		TemperatureUnit: model.UnitCelsius,
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	if url := os.Getenv("HASS_URL"); url != "" {
		cfg.HassURL = url
	}
	if token := os.Getenv("HASS_TOKEN"); token != "" {
		cfg.HassToken = token
	}
	if cfg.SerialNumber == "" {
		cfg.SerialNumber = uuid.NewString()
	}
	return cfg, nil
}

var _ ports.HubPort = (*homeassistant.Client)(nil)
var _ ports.Publisher = (*hapserver.Server)(nil)
