package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/pwalczyk/mailvault/config"
	"github.com/pwalczyk/mailvault/interfaces"
	"github.com/pwalczyk/mailvault/internal/cron"
	"github.com/pwalczyk/mailvault/internal/database"
	"github.com/pwalczyk/mailvault/internal/logger"
	"github.com/pwalczyk/mailvault/internal/repository"
	"github.com/pwalczyk/mailvault/services/extractor"
	"github.com/pwalczyk/mailvault/services/filter"
	imapsource "github.com/pwalczyk/mailvault/services/imap"
	"github.com/pwalczyk/mailvault/services/sender"
	"github.com/pwalczyk/mailvault/services/sync"
)

type application struct {
	cfg       *config.Config
	log       logger.Logger
	db        *gorm.DB
	repos     *repository.Repositories
	locations *extractor.Locations
}

func initApplication() (*application, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return nil, fmt.Errorf("config initialization failed: %w", err)
	}

	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	db, err := database.NewConnection(&database.DatabaseConfig{
		Host:            cfg.DatabaseConfig.Host,
		Port:            cfg.DatabaseConfig.Port,
		User:            cfg.DatabaseConfig.User,
		DBName:          cfg.DatabaseConfig.DBName,
		Password:        cfg.DatabaseConfig.Password,
		MaxConn:         cfg.DatabaseConfig.MaxConn,
		MaxIdleConn:     cfg.DatabaseConfig.MaxIdleConn,
		ConnMaxLifetime: cfg.DatabaseConfig.ConnMaxLifetime,
		LogLevel:        cfg.DatabaseConfig.LogLevel,
		SSLMode:         cfg.DatabaseConfig.SSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("database initialization failed: %w", err)
	}

	return &application{
		cfg:       cfg,
		log:       appLogger,
		db:        db,
		repos:     repository.InitRepositories(db),
		locations: extractor.NewLocations(cfg.StorageConfig),
	}, nil
}

func (a *application) syncService(allMonths bool) *sync.Service {
	// evaluated per run, so a watch process crossing a month boundary filters
	// against the month the run actually starts in
	rules := func() filter.Rules {
		rules := filter.Rules{
			AllowedSenders: a.cfg.SyncConfig.AllowedSenders(),
		}
		if !allMonths {
			rules.Timeframe = filter.CurrentMonth()
		}
		return rules
	}

	factory := func(account config.MailboxAccount) (interfaces.MailSource, error) {
		return imapsource.Connect(account, a.log)
	}
	return sync.NewService(a.log, a.repos, factory, rules, a.locations.Resolve)
}

func main() {
	app := &cli.App{
		Name:  "mailvault",
		Usage: "collect invoice mail into monthly snapshots and forward the PDFs",
		Commands: []*cli.Command{
			syncCommand(),
			sendCommand(),
			openCommand(),
			snapshotsCommand(),
			watermarksCommand(),
			migrateCommand(),
			watchCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "fetch new messages from every configured mailbox",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "all",
				Usage: "disable the current-month timeframe filter",
			},
		},
		Action: func(c *cli.Context) error {
			app, err := initApplication()
			if err != nil {
				return err
			}
			return app.syncService(c.Bool("all")).SyncAll(context.Background(), app.cfg.Mailboxes)
		},
	}
}

func sendCommand() *cli.Command {
	return &cli.Command{
		Name:  "send",
		Usage: "mail the collected PDFs to the configured recipient",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "list the files without sending anything",
			},
			&cli.StringFlag{
				Name:  "month",
				Usage: "send a specific month (YYYY_MM) instead of the current one",
			},
		},
		Action: func(c *cli.Context) error {
			app, err := initApplication()
			if err != nil {
				return err
			}

			dir := app.locations.InvoiceDir()
			if month := c.String("month"); month != "" {
				dir = app.locations.MonthDir(month)
			}
			return sender.NewService(app.log, app.cfg.SMTPConfig).SendDirectory(dir, c.Bool("dry-run"))
		},
	}
}

func openCommand() *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "open the invoice folder in the system file browser",
		ArgsUsage: "[YYYY_MM]",
		Action: func(c *cli.Context) error {
			app, err := initApplication()
			if err != nil {
				return err
			}

			dir := app.locations.InvoiceDir()
			if month := c.Args().First(); month != "" {
				dir = app.locations.MonthDir(month)
			}
			return openFolder(dir)
		},
	}
}

func openFolder(dir string) error {
	var opener string
	switch runtime.GOOS {
	case "darwin":
		opener = "open"
	default:
		opener = "xdg-open"
	}
	cmd := exec.Command(opener, dir)
	return cmd.Start()
}

func snapshotsCommand() *cli.Command {
	mailboxFlag := &cli.StringFlag{Name: "mailbox", Usage: "restrict to one mailbox"}
	monthFlag := &cli.StringFlag{Name: "month", Usage: "restrict to one month (YYYY_MM)"}

	return &cli.Command{
		Name:  "snapshots",
		Usage: "inspect or remove stored month snapshots",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Flags: []cli.Flag{mailboxFlag, monthFlag},
				Action: func(c *cli.Context) error {
					app, err := initApplication()
					if err != nil {
						return err
					}

					snapshots, err := app.repos.Snapshots.ListSnapshots(context.Background(), c.String("mailbox"), c.String("month"))
					if err != nil {
						return err
					}
					for _, snapshot := range snapshots {
						fmt.Printf("%s  %s  %d records  latest uid %d\n",
							snapshot.Mailbox, snapshot.Month, len(snapshot.Items), snapshot.Items.MaxUID())
					}
					return nil
				},
			},
			{
				Name:  "remove",
				Flags: []cli.Flag{mailboxFlag, monthFlag},
				Action: func(c *cli.Context) error {
					app, err := initApplication()
					if err != nil {
						return err
					}
					return app.repos.Snapshots.DeleteSnapshots(context.Background(), c.String("mailbox"), c.String("month"))
				},
			},
		},
	}
}

func watermarksCommand() *cli.Command {
	return &cli.Command{
		Name:  "watermarks",
		Usage: "inspect the per-mailbox sync watermarks",
		Subcommands: []*cli.Command{
			{
				Name: "list",
				Action: func(c *cli.Context) error {
					app, err := initApplication()
					if err != nil {
						return err
					}

					watermarks, err := app.repos.Watermarks.ListWatermarks(context.Background())
					if err != nil {
						return err
					}
					for _, watermark := range watermarks {
						fmt.Printf("%s  uid %d  updated %s\n",
							watermark.Mailbox, watermark.LatestUID, watermark.UpdatedAt.Format("2006-01-02 15:04:05"))
					}
					return nil
				},
			},
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "run database migrations",
		Action: func(c *cli.Context) error {
			app, err := initApplication()
			if err != nil {
				return err
			}
			if err := repository.MigrateDB(app.db); err != nil {
				return fmt.Errorf("database migration failed: %w", err)
			}
			app.log.Info("Database migration completed successfully")
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "run sync on a schedule until interrupted",
		Action: func(c *cli.Context) error {
			app, err := initApplication()
			if err != nil {
				return err
			}

			service := app.syncService(false)
			manager := cron.NewCronManager(app.log, app.cfg.AppConfig.CronScheduleSync, func() {
				if err := service.SyncAll(context.Background(), app.cfg.Mailboxes); err != nil {
					app.log.Errorf("Scheduled sync failed: %v", err)
				}
			})
			if err := manager.Start(); err != nil {
				return err
			}

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			manager.Stop()
			return nil
		},
	}
}
