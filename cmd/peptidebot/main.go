package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"peptide-reminder/internal/bot"
	"peptide-reminder/internal/config"
	"peptide-reminder/internal/logging"
	"peptide-reminder/internal/parser"
	"peptide-reminder/internal/repository"
	"peptide-reminder/internal/service"
)

func main() {
	app := cli.App{
		Name:      "peptidebot",
		Usage:     "Telegram reminders for peptide dosing cycles",
		UsageText: "peptidebot [command] [arguments...]",
		Commands: []cli.Command{
			{
				Name:   "run",
				Usage:  "run the bot and the reminder dispatcher",
				Action: run,
			},
			{
				Name:   "bot",
				Usage:  "run the Telegram command surface only",
				Action: runBot,
			},
			{
				Name:   "worker",
				Usage:  "run the reminder dispatcher only",
				Action: runWorker,
			},
			{
				Name:      "parse",
				Usage:     "parse a schedule without storing it",
				ArgsUsage: `"name; dosage; days; duration"`,
				Action:    parse,
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type deps struct {
	cfg      config.Config
	log      zerolog.Logger
	db       *gorm.DB
	telegram *bot.Bot
}

func setup() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	scheduleSvc := service.NewScheduleService(repository.NewScheduleRepository(db))
	telegram, err := bot.New(&cfg, userRepo, scheduleSvc, log)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("bot: %w", err)
	}
	return &deps{cfg: cfg, log: log, db: db, telegram: telegram}, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func (d *deps) dispatcher() (*service.Dispatcher, error) {
	cadence, err := d.cfg.Cadence()
	if err != nil {
		return nil, err
	}
	return service.NewDispatcher(repository.NewReminderRepository(d.db), d.telegram, service.SystemClock(), cadence, d.log), nil
}

func run(c *cli.Context) error {
	return start(true, true)
}

func runBot(c *cli.Context) error {
	return start(true, false)
}

func runWorker(c *cli.Context) error {
	return start(false, true)
}

// start runs the selected components until a signal arrives or one of them
// fails. Bot and dispatcher share only the database.
func start(withBot, withWorker bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := setup()
	if err != nil {
		return err
	}
	defer closeDB(d.db)

	var dispatcher *service.Dispatcher
	if withWorker {
		if dispatcher, err = d.dispatcher(); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	if withBot {
		g.Go(func() error { return d.telegram.Start(ctx) })
	}
	if dispatcher != nil {
		g.Go(func() error { return dispatcher.Run(ctx) })
	}

	d.log.Info().Bool("bot", withBot).Bool("worker", withWorker).Msg("peptide reminder started")
	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	d.log.Info().Msg("shutdown complete")
	return err
}

func parse(c *cli.Context) error {
	raw := strings.Join(c.Args(), " ")
	parsed, err := parser.Parse(raw)
	if err != nil {
		return err
	}
	fmt.Printf("peptide:  %s\n", parsed.PeptideName)
	fmt.Printf("dosage:   %s\n", parsed.Dosage)
	fmt.Printf("days:     %s (%s)\n", parsed.DayPattern, parsed.DayPattern.Describe())
	fmt.Printf("cycle:    %d days\n", parsed.CycleDurationDays)
	fmt.Printf("rest:     %d days\n", parsed.RestPeriodDays)
	return nil
}
