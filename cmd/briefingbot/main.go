package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dalbo/briefingbot/internal/calendar"
	"github.com/dalbo/briefingbot/internal/chat"
	"github.com/dalbo/briefingbot/internal/clock"
	"github.com/dalbo/briefingbot/internal/config"
	"github.com/dalbo/briefingbot/internal/digest"
	"github.com/dalbo/briefingbot/internal/llm"
	"github.com/dalbo/briefingbot/internal/logging"
	"github.com/dalbo/briefingbot/internal/scheduler"
	"github.com/dalbo/briefingbot/internal/todoist"
	"github.com/dalbo/briefingbot/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	debug      bool
}

func main() {
	flags := parseFlags()
	logging.Setup(flags.debug)
	defer logging.Sync()

	logging.Info("briefingbot starting", "config_path", flags.configPath)

	conf, err := config.Load(flags.configPath)
	if err != nil {
		logging.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	// A missing timezone database is fatal: classifying against UTC would
	// silently produce wrong briefings.
	zone, err := clock.LoadZone(conf.Timezone)
	if err != nil {
		logging.Error("cannot load target timezone", err, "timezone", conf.Timezone)
		os.Exit(1)
	}

	sources := make([]calendar.Source, 0, len(conf.ICS))
	for i, ics := range conf.ICS {
		id := ics.ID
		if id == "" {
			id = "ics-" + strconv.Itoa(i)
		}
		sources = append(sources, calendar.Source{ID: id, Name: ics.Name, URL: ics.URL})
	}

	events := calendar.NewService(sources, calendar.NewFetcher(conf.CacheDir), zone, nil)
	tasks := todoist.NewClient(conf.Secrets.TodoistToken, "")

	sender, err := chat.NewClient(conf.Secrets.TelegramToken, conf.Secrets.TelegramChatID)
	if err != nil {
		logging.Error("cannot authenticate chat client", err)
		os.Exit(1)
	}

	var grouper llm.Grouper
	if conf.Secrets.OpenAIKey != "" {
		grouper = llm.NewClient(conf.Secrets.OpenAIKey, "")
	} else {
		logging.Info("no LLM key configured, digests use the plain layout")
	}

	briefer := digest.NewService(tasks, events, sender, grouper, zone, conf.TaskFilter, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if flags.once {
		if err := briefer.Run(ctx, digest.KindManual); err != nil {
			logging.Error("one-shot briefing failed", err)
			os.Exit(1)
		}
		return
	}

	sched, err := scheduler.New(briefer, conf.Schedules, zone.Location())
	if err != nil {
		logging.Error("invalid schedule configuration", err)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	srv := web.NewServer(conf, briefer, zone)
	if err := srv.Run(ctx); err != nil {
		logging.Error("http server failed", err)
		os.Exit(1)
	}

	logging.Info("briefingbot exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/briefingbot/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Deliver one briefing and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Verbose logging")

	flag.Parse()

	return cfg
}
