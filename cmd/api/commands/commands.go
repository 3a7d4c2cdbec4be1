package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/restoreview/core/internal/adapters/repository"
	"github.com/restoreview/core/internal/application/services"
	"github.com/restoreview/core/internal/domain/entities"
	"github.com/restoreview/core/internal/infrastructure/config"
	"github.com/restoreview/core/internal/infrastructure/logger"
	"github.com/restoreview/core/internal/infrastructure/metrics"
	"github.com/restoreview/core/internal/infrastructure/server"
	"github.com/restoreview/core/internal/ports"
)

// Version information, set at build time with -ldflags
var (
	Version   = "1.0.0"
	BuildDate = "unknown"
	GitCommit = "development"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long:  "Start the HTML pages and the JSON API on top of the configured data file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// NewRestaurantCommand creates the restaurant management command
func NewRestaurantCommand() *cobra.Command {
	restaurantCmd := &cobra.Command{
		Use:   "restaurant",
		Short: "Restaurant management commands",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a restaurant",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			address, _ := cmd.Flags().GetString("address")
			description, _ := cmd.Flags().GetString("description")

			return withApp(func(a *app) error {
				restaurant, err := a.restaurants.CreateRestaurant(cmd.Context(), ports.CreateRestaurantRequest{
					Name:        name,
					Address:     address,
					Description: description,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restaurant %s added with ID %d\n", restaurant.Name, restaurant.ID)
				return nil
			})
		},
	}
	addCmd.Flags().String("name", "", "Restaurant name (required)")
	addCmd.Flags().String("address", "", "Restaurant address (required)")
	addCmd.Flags().String("description", "", "Restaurant description")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List restaurants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				restaurants, err := a.restaurants.ListRestaurants(cmd.Context())
				if err != nil {
					return err
				}
				printRestaurants(cmd.OutOrStdout(), restaurants)
				return nil
			})
		},
	}

	restaurantCmd.AddCommand(addCmd, listCmd)
	return restaurantCmd
}

// NewReviewCommand creates the review command
func NewReviewCommand() *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Review commands",
	}

	reviewCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every review with its restaurant",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				reviews, err := a.restaurants.ListReviewsWithRestaurant(cmd.Context())
				if err != nil {
					return err
				}
				printReviews(cmd.OutOrStdout(), reviews)
				return nil
			})
		},
	})

	return reviewCmd
}

// NewUserCommand creates the user management command
func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long:  "Create users in the data file",
	}

	createUserCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			return withApp(func(a *app) error {
				user, err := a.users.RegisterUser(cmd.Context(), ports.CreateUserRequest{
					Username: username,
					Email:    email,
					Password: password,
				})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "User created successfully:\n")
				fmt.Fprintf(out, "  ID: %d\n", user.ID)
				fmt.Fprintf(out, "  Username: %s\n", user.Username)
				if user.Email != "" {
					fmt.Fprintf(out, "  Email: %s\n", user.Email)
				}
				return nil
			})
		},
	}

	createUserCmd.Flags().String("username", "", "Username (required)")
	createUserCmd.Flags().String("email", "", "User email")
	createUserCmd.Flags().String("password", "", "User password")

	userCmd.AddCommand(createUserCmd)
	return userCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "restoreview %s\n", Version)
			fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
			fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
		},
	}
}

// app bundles what the offline commands need
type app struct {
	restaurants *services.RestaurantService
	users       *services.UserService
}

func withApp(fn func(a *app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = appLogger.Close()
	}()

	store, err := openStore(cfg, appLogger, nil)
	if err != nil {
		return err
	}

	v := services.NewValidator()
	return fn(&app{
		restaurants: services.NewRestaurantService(store, store, store, v, appLogger),
		users:       services.NewUserService(store, v, appLogger),
	})
}

// openStore loads the data file and reports every flush to the log and,
// when given, to the metrics registry.
func openStore(cfg *config.Config, appLogger *logger.Logger, m *metrics.Metrics) (*repository.DocumentStore, error) {
	storeLogger := appLogger.WithComponent("document_store")
	path := cfg.Storage.DataFile

	store, err := repository.NewDocumentStore(path,
		repository.WithAtomicWrite(cfg.Storage.AtomicWrite),
		repository.WithSaveObserver(func(op string, d time.Duration, err error) {
			storeLogger.LogDocumentWrite(op, path, float64(d.Nanoseconds())/1000000, err)
			if m != nil {
				m.ObserveDocumentWrite(op, d, err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file %s: %w", path, err)
	}

	stats := store.Stats()
	storeLogger.Infow("Data file loaded",
		"path", path,
		"users", stats.Users,
		"restaurants", stats.Restaurants,
		"reviews", stats.Reviews,
		"images", stats.Images,
	)

	return store, nil
}

func runServer(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = appLogger.Close()
	}()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	store, err := openStore(cfg, appLogger, m)
	if err != nil {
		appLogger.Errorw("Failed to open data file", "error", err)
		return err
	}

	srv, err := server.New(cfg, store, m, appLogger)
	if err != nil {
		appLogger.Errorw("Failed to initialize server", "error", err)
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		appLogger.Infow("Starting web server",
			"address", cfg.Server.GetAddr(),
			"environment", cfg.App.Environment,
			"data_file", store.Path(),
		)
		errCh <- srv.Start(cfg.Server.GetAddr())
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Errorw("Server failed", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorw("Graceful shutdown failed", "error", err)
		return err
	}

	appLogger.Info("Server stopped")
	return nil
}

func printRestaurants(w io.Writer, restaurants []entities.Restaurant) {
	if len(restaurants) == 0 {
		fmt.Fprintln(w, "No restaurants yet")
		return
	}
	for _, r := range restaurants {
		fmt.Fprintf(w, "%4d  %s, %s\n", r.ID, r.Name, r.Address)
		if r.Description != "" {
			fmt.Fprintf(w, "      %s\n", r.Description)
		}
	}
}

func printReviews(w io.Writer, reviews []entities.ReviewWithRestaurant) {
	if len(reviews) == 0 {
		fmt.Fprintln(w, "No reviews yet")
		return
	}
	for _, r := range reviews {
		name := r.Restaurant
		if name == "" {
			name = fmt.Sprintf("#%d", r.RestaurantID)
		}
		fmt.Fprintf(w, "%s  [%s]  %s\n", name, r.RatingText(), strings.TrimSpace(r.Comment))
	}
}
