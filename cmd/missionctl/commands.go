package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/mission-service/internal/auth"
	"github.com/spec-kit/mission-service/internal/config"
	"github.com/spec-kit/mission-service/internal/observability"
	"github.com/spec-kit/mission-service/internal/persistence"
	"github.com/spec-kit/mission-service/internal/repository"
	"github.com/spec-kit/mission-service/internal/service"
)

// cliEnv is loaded once per invocation by the root command.
type cliEnv struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	env := &cliEnv{}
	root := &cobra.Command{
		Use:           "missionctl",
		Short:         "Operator tooling for the mission service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := observability.NewLogger(cfg.Logger, cfg.App)
			if err != nil {
				return err
			}
			env.cfg = cfg
			env.logger = logger
			return nil
		},
	}
	root.AddCommand(migrateCmd(env), userCmd(env), tokenCmd(env))
	return root
}

func migrateCmd(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{Use: "migrate", Short: "Manage the database schema"}

	withMigrator := func(fn func(*persistence.Migrator) error) error {
		migrator, err := persistence.NewMigrator(env.cfg.Postgres.DSN, env.logger)
		if err != nil {
			return err
		}
		defer func() { _ = migrator.Close() }()
		return fn(migrator)
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *persistence.Migrator) error { return m.Up() })
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *persistence.Migrator) error { return m.Down(steps) })
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back; 0 rolls back everything")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *persistence.Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", v, dirty)
				return nil
			})
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func userCmd(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage user accounts"}

	withUsers := func(ctx context.Context, fn func(repository.UserRepository) error) error {
		pg, err := persistence.NewPostgres(ctx, env.cfg.Postgres, env.logger)
		if err != nil {
			return err
		}
		defer pg.Close()
		if pg.PoolHandle() == nil {
			return errors.New("POSTGRES_DSN is required")
		}
		return fn(repository.NewUserRepository(pg.PoolHandle()))
	}

	var email, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an active user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUsers(cmd.Context(), func(users repository.UserRepository) error {
				svc := service.NewAuthService(*env.cfg, service.AuthDependencies{UserRepo: users, Logger: env.logger})
				user, err := svc.Signup(cmd.Context(), email, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s)\n", user.ID, user.Email)
				return nil
			})
		},
	}
	create.Flags().StringVar(&email, "email", "", "login email")
	create.Flags().StringVar(&password, "password", "", "initial password")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	setActive := func(use, short string, active bool) *cobra.Command {
		var id int64
		c := &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withUsers(cmd.Context(), func(users repository.UserRepository) error {
					if err := users.SetActive(cmd.Context(), id, active); err != nil {
						if repository.IsNotFound(err) {
							return fmt.Errorf("user %d not found", id)
						}
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "user %d active=%t\n", id, active)
					return nil
				})
			},
		}
		c.Flags().Int64Var(&id, "id", 0, "user id")
		_ = c.MarkFlagRequired("id")
		return c
	}

	cmd.AddCommand(create,
		setActive("deactivate", "Block a user from logging in", false),
		setActive("activate", "Re-enable a user", true))
	return cmd
}

func tokenCmd(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{Use: "token", Short: "Inspect and mint tokens"}

	manager := func() *auth.TokenManager {
		return auth.NewTokenManager(env.cfg.Auth.Secret, env.cfg.Auth.AccessTTL(), env.cfg.Auth.RefreshTTL())
	}

	decode := &cobra.Command{
		Use:   "decode <token>",
		Short: "Verify a token and print its payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := manager().Decode(args[0])
			if err != nil {
				return err
			}
			out := struct {
				auth.Payload
				IssuedAt  string `json:"issued_at"`
				ExpiresAt string `json:"expires_at"`
			}{
				Payload:   payload,
				IssuedAt:  time.Unix(payload.IssuedAt, 0).UTC().Format(time.RFC3339),
				ExpiresAt: time.Unix(payload.ExpiresAt, 0).UTC().Format(time.RFC3339),
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	var subject, typ string
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Sign a token for a subject with the configured lifetime",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tm := manager()
			var (
				token string
				err   error
			)
			switch auth.TokenType(typ) {
			case auth.TokenTypeAccess:
				token, err = tm.IssueAccessToken(subject)
			case auth.TokenTypeRefresh:
				token, err = tm.IssueRefreshToken(subject)
			default:
				return fmt.Errorf("unknown token type %q", typ)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issue.Flags().StringVar(&subject, "subject", "", "user id to embed as sub")
	issue.Flags().StringVar(&typ, "type", string(auth.TokenTypeAccess), "access or refresh")
	_ = issue.MarkFlagRequired("subject")

	cmd.AddCommand(decode, issue)
	return cmd
}
