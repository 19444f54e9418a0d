// Command tokenctl issues and revokes dashboard admin tokens for pedalgate.
// It reads the same environment as the server (JWT_SIGNING_KEY, JWT_ISSUER,
// REDIS_URL).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pedalgate/internal/identity"
	"pedalgate/internal/platform/config"
	"pedalgate/internal/platform/redis"
	"pedalgate/pkg/domain"
)

func main() {
	if err := newRootCmd(config.FromEnv()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "tokenctl",
		Short:         "Manage pedalgate admin tokens",
		SilenceUsage: true,
	}
	root.AddCommand(newIssueCmd(cfg), newRevokeCmd(cfg))
	return root
}

func newIssueCmd(cfg config.Config) *cobra.Command {
	var (
		caller domain.Caller
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign an admin token",
		Long: `Sign an HS256 admin token with JWT_SIGNING_KEY.

The token is printed on the first line, followed by its id and expiry.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tokens := identity.NewTokenService(cfg.Auth)
			if !tokens.Configured() {
				return errors.New("JWT_SIGNING_KEY is required")
			}
			if caller.UserID == "" {
				return errors.New("--user is required")
			}
			if ttl <= 0 {
				return errors.New("--ttl must be positive")
			}
			signed, claims, err := tokens.Issue(caller, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, signed)
			fmt.Fprintf(out, "jti: %s\nexpires: %s\n", claims.ID, claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&caller.UserID, "user", "", "user id (token subject)")
	cmd.Flags().StringVar(&caller.AdminID, "admin-id", "", "admin record id recorded on decisions")
	cmd.Flags().StringVar(&caller.Role, "role", "admin", "token role")
	cmd.Flags().StringVar(&caller.Email, "email", "", "admin email")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}

func newRevokeCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <token>",
		Short: "Revoke an admin token until it expires",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			claims, err := identity.NewTokenService(cfg.Auth).Validate(args[0])
			if err != nil {
				return fmt.Errorf("token is not valid, nothing to revoke: %w", err)
			}
			if claims.ExpiresAt == nil {
				return errors.New("token has no expiry")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			client, err := redis.New(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			if client == nil {
				return errors.New("REDIS_URL is required to revoke tokens")
			}
			defer client.Close()

			ttl := time.Until(claims.ExpiresAt.Time)
			if err := identity.NewRedisRevocationList(client.Client).Revoke(ctx, claims.ID, ttl); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", claims.ID)
			return nil
		},
	}
}
