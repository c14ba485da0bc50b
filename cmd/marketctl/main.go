package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"sahaayak/internal/config"
	"sahaayak/internal/database"
	"sahaayak/internal/domain"
	"sahaayak/internal/events"
	"sahaayak/internal/logger"
	"sahaayak/internal/repository"
	"sahaayak/internal/server"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrationsDir string

// app holds the connections shared by every subcommand
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	db        database.Service
	store     *repository.Store
	redis     *redis.Client
	publisher events.Publisher
}

func (a *app) services() server.Services {
	return server.NewServices(a.cfg, a.log, a.store, a.redis, a.publisher)
}

func (a *app) close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	_ = a.log.Sync()
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "marketctl",
		Short:         "Administration tool for the sahaayak marketplace",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.cfg = config.Load()

			log, err := logger.New(a.cfg.Server.Env)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.log = log

			db, err := database.New(a.cfg.Database)
			if err != nil {
				return err
			}
			a.db = db
			a.store = repository.NewStore(db.DB(), a.cfg.Database.QueryTimeout)
			a.redis = redis.NewClient(&redis.Options{
				Addr:     a.cfg.Redis.Addr(),
				Password: a.cfg.Redis.Password,
				DB:       a.cfg.Redis.DB,
			})
			a.publisher = events.NewKafkaPublisher(a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic, log)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "migrations", "migrations", "directory holding goose migrations")

	rootCmd.AddCommand(migrateCmd(a))
	rootCmd.AddCommand(seedCmd(a))
	rootCmd.AddCommand(approveCmd(a))
	rootCmd.AddCommand(sweepCmd(a))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, roll back or list schema migrations",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}

			switch direction {
			case "up":
				return database.RunMigrations(a.db.DB(), migrationsDir, a.log)
			case "down":
				return database.RollbackMigration(a.db.DB(), migrationsDir, a.log)
			case "status":
				return database.GetMigrationStatus(a.db.DB(), migrationsDir)
			default:
				return fmt.Errorf("unknown direction %q", direction)
			}
		},
	}
}

func approveCmd(a *app) *cobra.Command {
	var (
		role   string
		revoke bool
	)

	cmd := &cobra.Command{
		Use:   "approve [id]",
		Short: "Approve (or with --revoke, suspend) a vendor or wholesaler account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid account id: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			if err := a.services().Auth.SetApproval(ctx, domain.Role(role), id, !revoke); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s approved=%t\n", role, id, !revoke)
			return nil
		},
	}

	cmd.Flags().StringVarP(&role, "role", "r", string(domain.RoleVendor), "account role (vendor, wholesaler)")
	cmd.Flags().BoolVar(&revoke, "revoke", false, "withdraw approval instead of granting it")

	return cmd
}

func sweepCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-delinquent",
		Short: "Block every pay-later account overdue past the grace period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			blocked, err := a.services().Credit.SweepDelinquent(ctx)
			if err != nil {
				return err
			}

			for _, id := range blocked {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			a.log.Info("Delinquency sweep finished", zap.Int("blocked", len(blocked)))
			return nil
		},
	}
}
