package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/cloud"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push every local item to the cloud mirror",
	Long: `Push the whole local item set to Firestore as one atomic batch.

The session token is read from --token or ZALOGA_TOKEN and is verified
with the configured auth secret. Cloud documents are only ever created or
overwritten, never deleted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := current
		if a.mirror == nil {
			return errors.New("cloud push disabled: no firestore project configured")
		}

		token, _ := cmd.Flags().GetString("token")
		if token == "" {
			token = os.Getenv("ZALOGA_TOKEN")
		}

		var userID string
		if token != "" && a.cfg.Auth.Secret != "" {
			claims, err := auth.ValidateToken(a.cfg.Auth.Secret, token)
			if err != nil {
				slog.Warn("session token rejected", "error", err)
			} else {
				userID = claims.UserID()
			}
		}

		items, err := a.store.GetAll(cmd.Context())
		if err != nil {
			return err
		}

		res, err := a.mirror.Push(cmd.Context(), userID, items)
		if errors.Is(err, cloud.ErrNotAuthenticated) {
			return fmt.Errorf("sign in before pushing: %w", err)
		}
		if err != nil {
			return err
		}

		slog.Info("cloud push done", "user", userID, "pushed", res.Pushed, "skipped", res.Skipped)
		fmt.Fprintf(cmd.OutOrStdout(), "pushed %d items, skipped %d\n", res.Pushed, res.Skipped)
		return nil
	},
}

func init() {
	pushCmd.Flags().String("token", "", "session token (default: $ZALOGA_TOKEN)")
}
