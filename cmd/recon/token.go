package main

import (
	"fmt"
	"time"

	"github.com/david/opportunity-sync/internal/auth"
	"github.com/spf13/cobra"
)

func newTokenCmd(a *app) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
		hash    string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print an admin token, or a bcrypt hash for ADMIN_SECRET_HASH",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if hash != "" {
				hashed, err := auth.HashSecret(hash)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), hashed)
				return nil
			}

			if a.cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET must be set to issue tokens the server will accept")
			}
			svc, err := auth.NewService(auth.Options{
				JWTSecret:       a.cfg.JWTSecret,
				AdminSecret:     a.cfg.AdminSecret,
				AdminSecretHash: a.cfg.AdminSecretHash,
				TokenTTL:        a.cfg.TokenTTL,
			}, a.logger)
			if err != nil {
				return err
			}
			token, err := svc.IssueToken(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "operator", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default TOKEN_TTL_HOURS)")
	cmd.Flags().StringVar(&hash, "hash-secret", "", "print a bcrypt hash of this secret instead of a token")
	return cmd
}
