package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/doridoridoriand/upsman-go/internal/cli"
	"github.com/doridoridoriand/upsman-go/internal/config"
	"github.com/doridoridoriand/upsman-go/internal/logger"
	"github.com/doridoridoriand/upsman-go/internal/metrics"
	"github.com/doridoridoriand/upsman-go/internal/monitor"
	"github.com/doridoridoriand/upsman-go/internal/remedy"
	"github.com/doridoridoriand/upsman-go/internal/state"
	"github.com/doridoridoriand/upsman-go/internal/ui"
	"github.com/doridoridoriand/upsman-go/internal/vmanage"
)

const version = "0.1.0"

const defaultConfigPath = "./config.yaml"

func main() {
	var (
		flagInterval      = cli.NewDuration()
		flagCount         = cli.NewInt()
		flagLogLevel      = cli.NewString()
		flagMetricsListen = cli.NewString()
		flagNoUI          = cli.NewBool()
		flagVersion       bool
		flagVersionShort  bool
	)

	flag.Var(flagInterval, "interval", "poll interval (override config)")
	flag.Var(flagInterval, "i", "poll interval (override config)")
	flag.Var(flagCount, "count", "trigger window size (override config)")
	flag.Var(flagLogLevel, "log-level", "log level: debug|info|warn|error")
	flag.Var(flagMetricsListen, "metrics-listen", "metrics listen address (e.g. :9100)")
	flag.Var(flagNoUI, "no-ui", "disable TUI (log only)")
	flag.BoolVar(&flagVersion, "version", false, "show version")
	flag.BoolVar(&flagVersionShort, "v", false, "show version")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [options] [config-file]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Options:")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flagVersion || flagVersionShort {
		fmt.Fprintf(os.Stdout, "upsman-go version %s\n", version)
		return
	}

	configPath := defaultConfigPath
	if args := flag.Args(); len(args) > 0 {
		configPath = args[0]
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		fmt.Fprintf(os.Stderr, "missing credentials: %v\n", err)
		os.Exit(1)
	}

	level := creds.LogLevel
	if v, ok := flagLogLevel.Value(); ok {
		level = v
	}
	log := logger.New(level)

	overrides := config.CLIOverrides{}
	if v, ok := flagInterval.Value(); ok {
		overrides.Interval = &v
	}
	if v, ok := flagCount.Value(); ok {
		overrides.Count = &v
	}
	if v, ok := flagMetricsListen.Value(); ok && v != "" {
		overrides.MetricsListen = &v
	}
	if v, ok := flagNoUI.Value(); ok {
		overrides.UIDisable = &v
	}

	log.Info().Str("path", configPath).Msg("loading config")
	cfg, err := config.LoadConfig(configPath, overrides)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := vmanage.NewClient(creds.SDWANURL, creds.SDWANUser, creds.SDWANPass, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build vManage client")
	}
	// No session means no monitoring at all; nothing to degrade to.
	if err := client.Authenticate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to authenticate to vManage")
	}

	store := state.NewStore(cfg.Sites, cfg.Count)
	siteIDs := store.SiteIDs()
	devices, err := client.Devices(ctx, siteIDs)
	if err != nil {
		log.Error().Err(err).Msg("failed to collect device inventory")
	}
	for siteID, systemIPs := range devices {
		store.SetDevices(siteID, systemIPs)
	}
	log.Info().Int("sites", len(siteIDs)).Msg("monitoring configured sites")

	runner := remedy.NewRunner(creds.UPSUser, creds.UPSPass, log)
	mon := monitor.New(cfg.Interval, client, store, runner, log)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.MetricsListen != "" {
		go func() {
			if err := metrics.Serve(runCtx, cfg.MetricsListen, store); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	if !cfg.UIDisable {
		go func() {
			// A quit from the dashboard shuts the whole process down.
			if err := ui.New(cfg.Interval, cfg.Count, store).Run(runCtx); err != nil {
				cancel()
			}
		}()
	}

	if err := mon.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("monitor stopped")
	}
	log.Info().Msg("received stop signal, quitting")
}
