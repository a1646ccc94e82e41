package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/portfolio-cms/apiserver/config"
	"github.com/portfolio-cms/apiserver/internal/auth"
	"github.com/portfolio-cms/apiserver/internal/db"
	"github.com/portfolio-cms/apiserver/internal/services"
	"github.com/portfolio-cms/apiserver/internal/store"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	adminEmail    string
	adminPassword string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage the administrator account",
}

var adminBootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create the admin account if it does not exist",
	Long: `Creates the single admin account from --email/--password, falling back to
ADMIN_EMAIL and ADMIN_PASSWORD. Running it again is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := loadConfig()
		email, password, err := adminCredentials(cfg)
		if err != nil {
			return err
		}

		return withAuthService(cmd.Context(), cfg, logger, func(ctx context.Context, svc *services.AuthService) error {
			user, created, err := svc.Bootstrap(ctx, email, password)
			if err != nil {
				return err
			}
			if !created {
				logger.Info().Str("email", user.Email).Msg("admin account already exists")
				return nil
			}
			logger.Info().Str("email", user.Email).Int("id", user.ID).Msg("admin account created")
			return nil
		})
	},
}

var adminResetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new admin password and revoke the active session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := loadConfig()
		email, password, err := adminCredentials(cfg)
		if err != nil {
			return err
		}

		return withAuthService(cmd.Context(), cfg, logger, func(ctx context.Context, svc *services.AuthService) error {
			if err := svc.ResetPassword(ctx, email, password); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("no account for %s", email)
				}
				return err
			}
			logger.Info().Str("email", email).Msg("password reset")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminBootstrapCmd)
	adminCmd.AddCommand(adminResetPasswordCmd)

	adminCmd.PersistentFlags().StringVar(&adminEmail, "email", "", "admin email (default: $ADMIN_EMAIL)")
	adminCmd.PersistentFlags().StringVar(&adminPassword, "password", "", "admin password (default: $ADMIN_PASSWORD)")
}

func adminCredentials(cfg config.Config) (string, string, error) {
	email := strings.TrimSpace(adminEmail)
	if email == "" {
		email = cfg.Auth.AdminEmail
	}
	password := adminPassword
	if password == "" {
		password = cfg.Auth.AdminPassword
	}
	if email == "" || password == "" {
		return "", "", errors.New("admin email and password are required (flags or ADMIN_EMAIL/ADMIN_PASSWORD)")
	}
	return email, password, nil
}

// withAuthService opens the database for one command and hands fn an auth
// service over it.
func withAuthService(ctx context.Context, cfg config.Config, logger zerolog.Logger, fn func(context.Context, *services.AuthService) error) error {
	return withDB(ctx, cfg, func(ctx context.Context, conn *sql.DB) error {
		tokens := auth.NewTokenManager(cfg.Auth.AccessSecret, cfg.Auth.RefreshSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, "portfolio")
		return fn(ctx, services.NewAuthService(store.NewUserRepository(conn), tokens, logger))
	})
}

func withDB(ctx context.Context, cfg config.Config, fn func(context.Context, *sql.DB) error) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	conn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close database: %v\n", err)
		}
	}()
	return fn(ctx, conn)
}
