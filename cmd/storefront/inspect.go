package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/greenleaf/storefront/internal/core/domain"
	"github.com/greenleaf/storefront/internal/core/ports"
	"github.com/greenleaf/storefront/internal/core/service"
	"github.com/greenleaf/storefront/internal/infrastructure/storage"
	"github.com/greenleaf/storefront/internal/pkg/config"
	"github.com/greenleaf/storefront/pkg/logger"
)

func inspectCmd() *cobra.Command {
	var profileID string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show stored profiles",
		Long: `Without --profile, list the profile ids found in storage (memory and
sqlite backends only). With --profile, print the stored user and cart of that
profile. The token is never printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := logger.Init(logger.Options{Level: "warn", Pretty: true, Output: cmd.ErrOrStderr()})

			backend, err := storage.Open(cmd.Context(), cfg, log)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer backend.Close()

			if profileID == "" {
				return listProfiles(cmd.Context(), cmd.OutOrStdout(), backend)
			}
			return printProfile(cmd.Context(), cmd.OutOrStdout(), backend, profileID)
		},
	}

	cmd.Flags().StringVarP(&profileID, "profile", "p", "", "Profile id to print")

	return cmd
}

func listProfiles(ctx context.Context, out io.Writer, backend storage.Backend) error {
	lister, ok := backend.(storage.Lister)
	if !ok {
		return errors.New("this storage backend cannot list keys; use --profile")
	}
	keys, err := lister.Keys(ctx, "profile:")
	if err != nil {
		return err
	}

	seen := make(map[string]struct{})
	for _, k := range keys {
		rest := strings.TrimPrefix(k, "profile:")
		if i := strings.IndexByte(rest, ':'); i > 0 {
			seen[rest[:i]] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	return nil
}

type storedProfile struct {
	ID           string          `json:"id"`
	TokenPresent bool            `json:"token_present"`
	User         json.RawMessage `json:"user,omitempty"`
	Cart         json.RawMessage `json:"cart,omitempty"`
	TotalItems   int             `json:"total_items"`
	Corrupt      []string        `json:"corrupt,omitempty"`
}

func printProfile(ctx context.Context, out io.Writer, backend ports.Storage, id string) error {
	prefix := service.ProfileKeyPrefix(id)
	sp := storedProfile{ID: id}

	_, hasToken, err := backend.Get(ctx, prefix+ports.KeyToken)
	if err != nil {
		return err
	}
	sp.TokenPresent = hasToken

	if raw, ok, err := backend.Get(ctx, prefix+ports.KeyUser); err != nil {
		return err
	} else if ok {
		var u domain.User
		if json.Unmarshal([]byte(raw), &u) != nil {
			sp.Corrupt = append(sp.Corrupt, ports.KeyUser)
		} else {
			sp.User = json.RawMessage(raw)
		}
	}

	if raw, ok, err := backend.Get(ctx, prefix+ports.KeyCart); err != nil {
		return err
	} else if ok {
		var c domain.Cart
		if json.Unmarshal([]byte(raw), &c) != nil {
			sp.Corrupt = append(sp.Corrupt, ports.KeyCart)
		} else {
			sp.Cart = json.RawMessage(raw)
			sp.TotalItems = c.TotalItems()
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(sp)
}
