package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/dharsanguruparan/filesmanager/internal/bootstrap"
	"github.com/dharsanguruparan/filesmanager/internal/config"
	"github.com/dharsanguruparan/filesmanager/internal/database"
	"github.com/dharsanguruparan/filesmanager/internal/queue"
	"github.com/dharsanguruparan/filesmanager/internal/repository"
	"github.com/dharsanguruparan/filesmanager/internal/session"
	"github.com/dharsanguruparan/filesmanager/internal/users"
)

// withPool loads the config and hands an open, migrated pool to fn.
func withPool(ctx context.Context, fn func(*config.Config, *pgxpool.Pool) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}
	return fn(cfg, pool)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(*config.Config, *pgxpool.Pool) error {
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	var password string
	var skipWelcome bool
	create := &cobra.Command{
		Use:   "create EMAIL",
		Short: "Register an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := promptPassword(cmd)
				if err != nil {
					return err
				}
				password = p
			}
			return withPool(cmd.Context(), func(cfg *config.Config, pool *pgxpool.Pool) error {
				var welcome users.WelcomeQueue = skipQueue{}
				if !skipWelcome {
					client := asynq.NewClient(bootstrap.QueueRedis(cfg))
					defer client.Close()
					welcome = queue.NewEnqueuer(client, cfg.QueueMaxRetry)
				}
				svc := users.NewService(repository.NewUserRepository(pool), welcome, zap.NewNop())
				u, err := svc.Register(cmd.Context(), args[0], password)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), u.ID)
				return nil
			})
		},
	}
	create.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when empty)")
	create.Flags().BoolVar(&skipWelcome, "no-welcome", false, "Do not schedule the welcome email")
	cmd.AddCommand(create)
	return cmd
}

func promptPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--password is required when stdin is not a terminal")
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

type skipQueue struct{}

func (skipQueue) EnqueueWelcome(context.Context, queue.WelcomePayload) error { return nil }

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Issue or revoke session tokens",
	}
	issue := &cobra.Command{
		Use:   "issue EMAIL",
		Short: "Issue a token for an existing account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(cfg *config.Config, pool *pgxpool.Pool) error {
				u, err := repository.NewUserRepository(pool).GetByEmail(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("lookup %s: %w", args[0], err)
				}
				rdb := bootstrap.Redis(cfg)
				defer rdb.Close()
				token, err := session.NewDirectory(rdb, cfg.SessionTTL).Issue(cmd.Context(), u.ID)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
	revoke := &cobra.Command{
		Use:   "revoke TOKEN",
		Short: "Revoke a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			rdb := bootstrap.Redis(cfg)
			defer rdb.Close()
			return session.NewDirectory(rdb, cfg.SessionTTL).Revoke(cmd.Context(), args[0])
		},
	}
	cmd.AddCommand(issue, revoke)
	return cmd
}
