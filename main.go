package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/briefstack/maildigest/interfaces"
	"github.com/briefstack/maildigest/internal/config"
	"github.com/briefstack/maildigest/internal/cron"
	"github.com/briefstack/maildigest/internal/database"
	"github.com/briefstack/maildigest/internal/logger"
	"github.com/briefstack/maildigest/internal/repository"
	"github.com/briefstack/maildigest/services/ai"
	"github.com/briefstack/maildigest/services/digest"
	"github.com/briefstack/maildigest/services/enrichment"
	"github.com/briefstack/maildigest/services/imap"
	"github.com/briefstack/maildigest/services/ingestion"
	"github.com/briefstack/maildigest/services/links"
	"github.com/briefstack/maildigest/services/parser"
)

// app bundles the long-lived pieces every command shares.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *gorm.DB
	repos *repository.Repositories
}

func newApp() (*app, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return nil, err
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, err
	}

	db, err := database.NewConnection(cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(db); err != nil {
		return nil, err
	}

	return &app{
		cfg:   cfg,
		log:   appLogger,
		db:    db,
		repos: repository.InitRepositories(db),
	}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

// runIngest opens one transport session and performs a single ingest pass.
func (a *app) runIngest(ctx context.Context) (*interfaces.IngestSummary, error) {
	if err := a.cfg.IMAP.Validate(); err != nil {
		return nil, err
	}

	session := imap.NewSession(a.cfg.IMAP, a.cfg.Ingest.Search, a.log)
	// Marking messages seen needs a writable mailbox selection.
	if err := session.Connect(!a.cfg.Ingest.MarkSeen); err != nil {
		return nil, err
	}
	defer session.Close()

	fetcher := links.NewFetcher(
		a.log,
		time.Duration(a.cfg.Ingest.FetchTimeout)*time.Second,
		a.cfg.Ingest.MaxCharsPerLink,
	)

	svc := ingestion.NewIngestionService(
		a.cfg.Ingest,
		a.cfg.IMAP.Mailbox,
		session,
		parser.NewDecoder(a.log),
		fetcher,
		a.repos.ContentItems,
		a.repos.IngestState,
		a.log,
	)
	return svc.Run(ctx)
}

func (a *app) digestService() (interfaces.DigestService, error) {
	if err := a.cfg.AI.Validate(); err != nil {
		return nil, err
	}
	enricher := enrichment.NewEnrichmentService(
		a.repos.AICache,
		a.repos.RoleCache,
		ai.NewAIService(a.cfg.AI, a.log),
		a.log,
		a.cfg.Ingest.MaxBodyChars,
	)
	return digest.NewDigestService(a.cfg.Digest, a.repos.ContentItems, enricher, a.log), nil
}

// buildDigestForRole selects, renders, and writes one role's digest file.
func (a *app) buildDigestForRole(ctx context.Context, svc interfaces.DigestService, role *config.Role, query interfaces.DigestQuery) error {
	items, err := svc.Select(ctx, role, query)
	if err != nil {
		return err
	}
	markdown := svc.FormatMarkdown(items, role.Name)
	path, err := svc.WriteDigest(markdown, time.Now(), role.Name)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d items)\n", path, len(items))
	return nil
}

// runPipeline is one full scheduled pass: ingest, then digest the newly
// stored items for the default role.
func (a *app) runPipeline(ctx context.Context) error {
	summary, err := a.runIngest(ctx)
	if err != nil {
		return err
	}
	if summary.NewCount == 0 {
		a.log.Infof("pipeline: nothing new to digest")
		return nil
	}

	roles, err := config.LoadRoles(a.cfg.Digest.RolesPath)
	if err != nil {
		return err
	}
	role, err := config.GetRole(roles, a.cfg.Digest.DefaultRole)
	if err != nil {
		return err
	}

	svc, err := a.digestService()
	if err != nil {
		return err
	}
	return a.buildDigestForRole(ctx, svc, role, interfaces.DigestQuery{
		ContentIDs: summary.NewContentIDs,
	})
}

func main() {
	cliApp := &cli.App{
		Name:  "maildigest",
		Usage: "ingest newsletters over IMAP and build role-based digests",
		Commands: []*cli.Command{
			migrateCommand(),
			ingestCommand(),
			buildDigestCommand(),
			listRolesCommand(),
			runCommand(),
			scheduleCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "create or update the local store schema",
		Action: func(c *cli.Context) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			// Migration already ran during startup; reaching here means it
			// succeeded.
			fmt.Println("store schema is up to date")
			return nil
		},
	}
}

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "fetch new messages and store deduplicated content items",
		Action: func(c *cli.Context) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			summary, err := a.runIngest(c.Context)
			if err != nil {
				return err
			}
			fmt.Printf("ingested %d new items, skipped %d\n", summary.NewCount, summary.Skipped)
			return nil
		},
	}
}

func buildDigestCommand() *cli.Command {
	return &cli.Command{
		Name:  "build-digest",
		Usage: "enrich stored items and write markdown digests",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "role", Usage: "role name from the roles file (defaults to DEFAULT_ROLE)"},
			&cli.BoolFlag{Name: "all-roles", Usage: "build one digest per enabled role"},
			&cli.IntFlag{Name: "since-hours", Usage: "only include items stored in the last N hours"},
			&cli.IntFlag{Name: "max-items", Usage: "cap the number of candidate items"},
		},
		Action: func(c *cli.Context) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			roles, err := config.LoadRoles(a.cfg.Digest.RolesPath)
			if err != nil {
				return err
			}

			svc, err := a.digestService()
			if err != nil {
				return err
			}
			query := interfaces.DigestQuery{
				SinceHours: c.Int("since-hours"),
				MaxItems:   c.Int("max-items"),
			}

			if c.Bool("all-roles") {
				enabled := config.EnabledRoles(roles)
				if len(enabled) == 0 {
					return fmt.Errorf("no enabled roles in %s", a.cfg.Digest.RolesPath)
				}
				for i := range enabled {
					if err := a.buildDigestForRole(c.Context, svc, &enabled[i], query); err != nil {
						return err
					}
				}
				return nil
			}

			roleName := c.String("role")
			if roleName == "" {
				roleName = a.cfg.Digest.DefaultRole
			}
			role, err := config.GetRole(roles, roleName)
			if err != nil {
				return err
			}
			return a.buildDigestForRole(c.Context, svc, role, query)
		},
	}
}

func listRolesCommand() *cli.Command {
	return &cli.Command{
		Name:  "list-roles",
		Usage: "show roles defined in the roles file",
		Action: func(c *cli.Context) error {
			cfg, err := config.InitConfig()
			if err != nil {
				return err
			}
			roles, err := config.LoadRoles(cfg.Digest.RolesPath)
			if err != nil {
				return err
			}
			for _, role := range config.EnabledRoles(roles) {
				fmt.Printf("%s\t(%d objectives, %d focus categories)\n",
					role.Name, len(role.Objectives), len(role.FocusCategories))
			}
			return nil
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "one full pass: ingest, then digest new items for the default role",
		Action: func(c *cli.Context) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			return a.runPipeline(c.Context)
		},
	}
}

func scheduleCommand() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "run the pipeline on the configured cron schedule until interrupted",
		Action: func(c *cli.Context) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			manager := cron.NewCronManager(a.cfg.Digest.Schedule, a.runPipeline, a.log)
			if err := manager.Start(); err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			<-stop

			manager.Stop()
			return nil
		},
	}
}
