package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/snapfest/authz/pkg/storage"
	"github.com/snapfest/authz/pkg/storage/postgres"
)

type rolesConfig struct {
	DatabaseURL    string        `env:"SNAPFEST_DATABASE_URL"`
	ConnectTimeout time.Duration `env:"SNAPFEST_CONNECT_TIMEOUT" envDefault:"5s"`
}

type roleEdge struct {
	itemName string
	grant    func(*postgres.Adapter, context.Context, string, string) error
	revoke   func(*postgres.Adapter, context.Context, string, string) error
	has      func(*postgres.Adapter, context.Context, string, string) (bool, error)
}

var roleEdges = map[string]roleEdge{
	"series-admin": {
		itemName: "series",
		grant:    (*postgres.Adapter).GrantSeriesAdmin,
		revoke:   (*postgres.Adapter).RevokeSeriesAdmin,
		has:      (*postgres.Adapter).HasSeriesAdmin,
	},
	"event-admin": {
		itemName: "event",
		grant:    (*postgres.Adapter).GrantEventAdmin,
		revoke:   (*postgres.Adapter).RevokeEventAdmin,
		has:      (*postgres.Adapter).HasEventAdmin,
	},
	"event-participant": {
		itemName: "event",
		grant:    (*postgres.Adapter).GrantEventParticipant,
		revoke:   (*postgres.Adapter).RevokeEventParticipant,
		has:      (*postgres.Adapter).HasEventParticipant,
	},
}

func init() {
	rootCmd.AddCommand(newRolesCommand())
}

func newRolesCommand() *cobra.Command {
	var databaseURLFlag string

	rolesCmd := &cobra.Command{
		Use:   "roles",
		Short: "Manage users and role grants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rolesCmd.PersistentFlags().StringVar(&databaseURLFlag, "database-url", "", "Database connection URL. Can also be set via SNAPFEST_DATABASE_URL.")

	var globalAdmin, banned bool
	addUserCmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user record and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRolesAdapter(cmd.Context(), databaseURLFlag, func(ctx context.Context, adapter *postgres.Adapter) error {
				record := storage.UserRecord{
					ID:          uuid.NewString(),
					GlobalAdmin: globalAdmin,
					Banned:      banned,
				}
				if err := adapter.PutUser(ctx, record); err != nil {
					return fmt.Errorf("create user: %w", err)
				}
				cmd.Printf("%s\n", record.ID)
				return nil
			})
		},
	}
	addUserCmd.Flags().BoolVar(&globalAdmin, "admin", false, "Create the user as a global admin.")
	addUserCmd.Flags().BoolVar(&banned, "banned", false, "Create the user as banned.")
	rolesCmd.AddCommand(addUserCmd)

	rolesCmd.AddCommand(&cobra.Command{
		Use:   "grant <role> <user-id> <item-id>",
		Short: "Grant a role edge. Roles: series-admin, event-admin, event-participant.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			edge, err := resolveRoleEdge(args[0])
			if err != nil {
				return err
			}
			return withRolesAdapter(cmd.Context(), databaseURLFlag, func(ctx context.Context, adapter *postgres.Adapter) error {
				if err := edge.grant(adapter, ctx, args[1], args[2]); err != nil {
					return fmt.Errorf("grant %s: %w", args[0], err)
				}
				cmd.Printf("Granted %s on %s %s to user %s\n", args[0], edge.itemName, args[2], args[1])
				return nil
			})
		},
	})

	rolesCmd.AddCommand(&cobra.Command{
		Use:   "revoke <role> <user-id> <item-id>",
		Short: "Revoke a role edge. Roles: series-admin, event-admin, event-participant.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			edge, err := resolveRoleEdge(args[0])
			if err != nil {
				return err
			}
			return withRolesAdapter(cmd.Context(), databaseURLFlag, func(ctx context.Context, adapter *postgres.Adapter) error {
				if err := edge.revoke(adapter, ctx, args[1], args[2]); err != nil {
					return fmt.Errorf("revoke %s: %w", args[0], err)
				}
				cmd.Printf("Revoked %s on %s %s from user %s\n", args[0], edge.itemName, args[2], args[1])
				return nil
			})
		},
	})

	rolesCmd.AddCommand(&cobra.Command{
		Use:   "check <role> <user-id> <item-id>",
		Short: "Check whether a role edge exists.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			edge, err := resolveRoleEdge(args[0])
			if err != nil {
				return err
			}
			return withRolesAdapter(cmd.Context(), databaseURLFlag, func(ctx context.Context, adapter *postgres.Adapter) error {
				has, err := edge.has(adapter, ctx, args[1], args[2])
				if err != nil {
					return fmt.Errorf("check %s: %w", args[0], err)
				}
				cmd.Printf("%t\n", has)
				return nil
			})
		},
	})

	return rolesCmd
}

func resolveRoleEdge(name string) (roleEdge, error) {
	edge, ok := roleEdges[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return roleEdge{}, fmt.Errorf("unknown role %q: expected series-admin, event-admin or event-participant", name)
	}
	return edge, nil
}

func withRolesAdapter(ctx context.Context, databaseURLFlag string, fn func(context.Context, *postgres.Adapter) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := env.ParseAs[rolesConfig]()
	if err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	databaseURL := strings.TrimSpace(databaseURLFlag)
	if databaseURL == "" {
		databaseURL = strings.TrimSpace(cfg.DatabaseURL)
	}
	if databaseURL == "" {
		return errors.New("missing database URL: set --database-url or SNAPFEST_DATABASE_URL")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	adapter, err := postgres.NewAdapter(db)
	if err != nil {
		return fmt.Errorf("initialize storage adapter: %w", err)
	}
	defer adapter.Close()

	return fn(ctx, adapter)
}
