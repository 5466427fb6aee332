package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/webagent/webagent/internal/auth"
	"github.com/webagent/webagent/internal/config"
	"github.com/webagent/webagent/internal/repository"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue session tokens",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "issue <user-id>",
		Short: "Issue an access and refresh token for an existing user",
		Long: `Issue a token pair signed with JWT_SECRET_KEY. Lifetimes follow
ACCESS_TOKEN_EXPIRE and REFRESH_TOKEN_EXPIRE.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issuer, err := issuerFromEnv()
			if err != nil {
				return err
			}

			ctx, cancel, repo, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cancel()
			defer repo.Close()

			user, err := repo.GetUserByID(ctx, args[0])
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					return fmt.Errorf("user %s not found", args[0])
				}
				return err
			}

			pair, err := issuer.IssuePair(user.ID)
			if err != nil {
				return err
			}

			if opts.output == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(pair)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), pair.AccessToken)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), pair.RefreshToken)
			return nil
		},
	})

	return cmd
}

// issuerFromEnv builds a token issuer from the same variables the API reads.
func issuerFromEnv() (*auth.TokenIssuer, error) {
	cfg, err := config.LoadTokens()
	if err != nil {
		return nil, err
	}
	if cfg.JWTSecretKey == "" {
		return nil, errors.New("JWT_SECRET_KEY is required")
	}
	return auth.NewTokenIssuer(cfg.JWTSecretKey, cfg.AccessTokenExpire, cfg.RefreshTokenExpire), nil
}
