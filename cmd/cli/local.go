package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	postgresRepo "github.com/iho/mutledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/mutledger/internal/adapter/repository/redis"
	"github.com/iho/mutledger/internal/domain"
	"github.com/iho/mutledger/internal/infrastructure/auth"
	"github.com/iho/mutledger/internal/infrastructure/config"
	"github.com/iho/mutledger/internal/infrastructure/logger"
	"github.com/iho/mutledger/internal/infrastructure/postgres"
	"github.com/iho/mutledger/internal/infrastructure/redis"
	"github.com/iho/mutledger/internal/usecase"
)

type actorService interface {
	Bootstrap(ctx context.Context, input usecase.CreateActorInput) (*domain.Actor, error)
	CreateActor(ctx context.Context, creator *domain.Actor, input usecase.CreateActorInput) (*domain.Actor, error)
	GetByUsername(ctx context.Context, username string) (*domain.Actor, error)
}

// actorsOpener returns the actor service, the loaded configuration and a
// close function releasing its connections.
type actorsOpener func(ctx context.Context) (actorService, *config.Config, func(), error)

func openActors(ctx context.Context) (actorService, *config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, 2, 0)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	closers := []func(){pool.Close}

	var cache usecase.Cache
	if !cfg.RedisDisabled {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		if client != nil {
			cache = redisRepo.NewCache(client)
			closers = append(closers, func() { _ = client.Close() })
		}
	}

	idGen := postgresRepo.NewULIDGenerator()
	notifier := usecase.NewNotificationUseCase(postgresRepo.NewNotificationRepository(pool), cache, idGen, cfg.UnreadCacheTTL, nil)
	svc := usecase.NewActorUseCase(
		postgresRepo.NewTxManager(pool),
		postgresRepo.NewActorRepository(pool, idGen),
		notifier,
		idGen,
	)

	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return svc, cfg, closeAll, nil
}

func tokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Bearer token operations",
	}

	var ttl time.Duration
	issueCmd := &cobra.Command{
		Use:   "issue <username>",
		Short: "Issue a development bearer token for an actor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, closeFn, err := a.actors(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if cfg.JWTSecret == "" {
				return config.ErrMissingJWTSecret
			}

			actor, err := svc.GetByUsername(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			expiration := cfg.JWTExpiration
			if ttl > 0 {
				expiration = ttl
			}
			token, err := auth.NewJWTManager(cfg.JWTSecret, expiration).Generate(actor)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issueCmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to JWT_EXPIRATION)")

	cmd.AddCommand(issueCmd)
	return cmd
}

type actorFlags struct {
	firstName string
	lastName  string
	role      string
	group     string
}

func (f *actorFlags) register(cmd *cobra.Command, defaultRole domain.Role) {
	cmd.Flags().StringVar(&f.firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&f.lastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&f.role, "role", string(defaultRole), "ADMIN or USER")
	cmd.Flags().StringVar(&f.group, "group", "", "Group name (required for USER)")
}

func (f *actorFlags) input(username string) usecase.CreateActorInput {
	return usecase.CreateActorInput{
		Username:  username,
		FirstName: f.firstName,
		LastName:  f.lastName,
		Role:      domain.Role(f.role),
		GroupName: f.group,
	}
}

func actorsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actors",
		Short: "Actor registration",
	}

	var bootstrapFlags actorFlags
	bootstrapCmd := &cobra.Command{
		Use:   "bootstrap <username>",
		Short: "Create the first ADMIN actor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, closeFn, err := a.actors(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			actor, err := svc.Bootstrap(cmd.Context(), bootstrapFlags.input(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", actor.Role, actor.Username, actor.ID)
			return nil
		},
	}
	bootstrapFlags.register(bootstrapCmd, domain.RoleAdmin)

	var (
		createFlags actorFlags
		creator     string
	)
	createCmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create an actor on behalf of an ADMIN and notify it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if creator == "" {
				return errors.New("--creator is required")
			}

			svc, _, closeFn, err := a.actors(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			admin, err := svc.GetByUsername(cmd.Context(), creator)
			if err != nil {
				return fmt.Errorf("look up creator: %w", err)
			}

			actor, err := svc.CreateActor(cmd.Context(), admin, createFlags.input(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", actor.Role, actor.Username, actor.ID)
			return nil
		},
	}
	createFlags.register(createCmd, domain.RoleUser)
	createCmd.Flags().StringVar(&creator, "creator", "", "Username of the ADMIN creating the actor")

	cmd.AddCommand(bootstrapCmd, createCmd)
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema migrations",
	}

	var path string
	open := func() (*postgres.Migrator, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load configuration: %w", err)
		}
		if path == "" {
			path = cfg.MigrationsPath
		}
		l := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console"})
		return postgres.NewMigrator(cfg.DatabaseURL, path, l), nil
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			return m.Up()
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			return m.Down()
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			v, dirty, err := m.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&path, "path", "", "Migrations directory (defaults to MIGRATIONS_PATH)")
	cmd.AddCommand(upCmd, downCmd, versionCmd)
	return cmd
}
