package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/config"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/database"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/routes"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/services"
)

func main() {
	// Amounts go out as JSON numbers, the dashboard does arithmetic on them.
	decimal.MarshalJSONWithoutQuotes = true

	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:   "kos-server",
		Short: "Boarding-house management API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfg)
		},
		SilenceUsage: true,
	}
	rootCmd.AddCommand(
		serveCmd(cfg),
		migrateCmd(cfg),
		seedCmd(cfg),
		backfillCmd(cfg),
		integrityCmd(cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return db, nil
}

func serveCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Migrate, seed the admin account and run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfg)
		},
	}
}

func serve(cfg *config.Config) error {
	db, err := connect(cfg)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	if err := database.SeedAdmin(db, cfg); err != nil {
		return fmt.Errorf("admin seed failed: %w", err)
	}

	gin.SetMode(cfg.GinMode)
	r := gin.Default()
	routes.Register(r, db, cfg)

	handler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})(r)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server listening on :%s (%s)", port, cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Println("Server stopped")
	return nil
}

func migrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connect(cfg)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("database migration failed: %w", err)
			}
			log.Println("migration complete")
			return nil
		},
	}
}

func seedCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the admin account and, with --rooms, sample rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			withRooms, _ := cmd.Flags().GetBool("rooms")
			db, err := connect(cfg)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("database migration failed: %w", err)
			}
			if err := database.SeedAdmin(db, cfg); err != nil {
				return fmt.Errorf("admin seed failed: %w", err)
			}
			if withRooms {
				if err := database.SeedRooms(db); err != nil {
					return fmt.Errorf("room seed failed: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("rooms", true, "also insert sample rooms into an empty room table")
	return cmd
}

func backfillCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "backfill-snapshots",
		Short: "Fill missing tenant and room names on bills and transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connect(cfg)
			if err != nil {
				return err
			}
			n, err := services.NewLedgerService(db).BackfillSnapshots(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("updated %d row(s)\n", n)
			return nil
		},
	}
}

func integrityCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check-integrity",
		Short: "Report rooms and tenancies whose occupancy data disagree",
		RunE: func(cmd *cobra.Command, args []string) error {
			repair, _ := cmd.Flags().GetBool("repair")
			db, err := connect(cfg)
			if err != nil {
				return err
			}
			svc := services.NewTenancyService(db)
			issues, err := svc.CheckIntegrity(cmd.Context())
			if err != nil {
				return err
			}
			for _, is := range issues {
				fmt.Printf("%-22s room=%s tenant=%s %s\n", is.Kind, is.RoomID, is.TenantID, is.Detail)
			}
			fmt.Printf("%d issue(s) found\n", len(issues))
			if !repair || len(issues) == 0 {
				return nil
			}
			fixed, err := svc.RepairIntegrity(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("repaired %d row(s)\n", fixed)
			return nil
		},
	}
	cmd.Flags().Bool("repair", false, "fix stale room references and availability flags")
	return cmd
}
