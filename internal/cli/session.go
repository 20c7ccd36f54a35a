package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/davstore/internal/auth"
)

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login [token]",
		Short: "Store the sync credential",
		Long: `Login stores a JWT issued by the sync service. While a valid token is
stored, deletes are kept as pending uploads instead of being applied at once.

Without an argument the token is read from the terminal without echo, or
from the first line of standard input.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				t, err := readToken(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return userError("read token: %w", err)
				}
				token = t
			}
			if token == "" {
				return userError("login: %w", auth.ErrInvalidToken)
			}
			if _, err := a.open(); err != nil {
				return err
			}
			if err := a.session.Login(cmd.Context(), token); err != nil {
				if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrTokenExpired) {
					return userError("login: %w", err)
				}
				return sysError("login: %w", err)
			}
			claims, err := a.session.Claims(cmd.Context())
			if err != nil {
				return sysError("login: %w", err)
			}
			if claims.ExpiresAt != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "logged in as %q until %s\n", claims.Subject, claims.ExpiresAt.UTC().Format(time.RFC3339))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %q\n", claims.Subject)
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the sync credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.open(); err != nil {
				return err
			}
			if err := a.session.Logout(cmd.Context()); err != nil {
				return sysError("logout: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}
