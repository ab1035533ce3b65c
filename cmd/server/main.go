package main

import (
	"alcyxob/exercise-catalog/internal/app"
	"alcyxob/exercise-catalog/internal/config"
	"alcyxob/exercise-catalog/internal/domain"
	"alcyxob/exercise-catalog/internal/service"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

// @title Exercise Catalog API
// @version 1.0
// @description Fuzzy search, filtering and paginated browsing over a merged exercise catalog.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configDir string
	storePath string
	out       io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{out: out}

	rootCmd := &cobra.Command{
		Use:           "exercise-catalog",
		Short:         "Exercise catalog server and query tool",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVar(&opts.configDir, "config", ".", "directory holding config.yaml")
	rootCmd.PersistentFlags().StringVar(&opts.storePath, "store", "", "custom exercise file (overrides store.path)")

	rootCmd.AddCommand(serveCmd(opts))
	rootCmd.AddCommand(searchCmd(opts))
	rootCmd.AddCommand(muscleCmd(opts))
	rootCmd.AddCommand(queryCmd(opts))
	rootCmd.AddCommand(customCmd(opts))
	return rootCmd
}

func (o *rootOptions) loadApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.LoadConfig(o.configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.storePath != "" {
		cfg.Store.Driver = config.StoreDriverFile
		cfg.Store.Path = o.storePath
	}
	logger := app.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)
	return app.New(ctx, cfg, logger)
}

func serveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := opts.loadApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.StartWatcher(ctx); err != nil {
				return err
			}

			gin.SetMode(gin.ReleaseMode)
			server := &http.Server{
				Addr:         a.Config.Server.Address,
				Handler:      a.Router(),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
				IdleTimeout:  120 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.Logger.Info("Server starting", "address", server.Addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			a.Logger.Info("Shutting down server...")

			ctxShutdown, cancel := context.WithTimeout(context.Background(), a.ShutdownTimeout())
			defer cancel()
			if err := server.Shutdown(ctxShutdown); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}
			a.Logger.Info("Server exiting.")
			return nil
		},
	}
}

func searchCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Fuzzy search exercise names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.CatalogService.Search(cmd.Context(), strings.Join(args, " "), limit)
			if len(res.Exercises) == 0 {
				fmt.Fprintln(opts.out, "No matches.")
				return nil
			}
			printExercises(opts.out, res.Exercises)
			if len(res.SuggestedGroups) > 0 {
				fmt.Fprintln(opts.out)
				for _, g := range res.SuggestedGroups {
					fmt.Fprintf(opts.out, "%s (%s): %d\n", g.Subregion, g.Region, g.MatchCount)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", service.DefaultSearchLimit, "maximum results")
	return cmd
}

func muscleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "muscle [name]",
		Short: "List exercises that train a subregion or muscle label",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			list := a.CatalogService.ExercisesForMuscle(strings.Join(args, " "))
			if len(list) == 0 {
				fmt.Fprintln(opts.out, "No exercises.")
				return nil
			}
			printExercises(opts.out, list)
			return nil
		},
	}
}

func queryCmd(opts *rootOptions) *cobra.Command {
	var (
		spec  domain.FilterSpec
		pages int
		equip string
		move  string
		sub   string
		deep  string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a filter and print its first pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec.Equipment = domain.EquipmentBucket(equip)
			spec.Movement = domain.MovementBucket(move)
			spec.Subregion = domain.Subregion(sub)
			spec.DeepSubregion = domain.Subregion(deep)
			if spec.Equipment != "" && !spec.Equipment.Valid() {
				return fmt.Errorf("unknown equipment %q", equip)
			}
			if spec.Movement != "" && !spec.Movement.Valid() {
				return fmt.Errorf("unknown movement %q", move)
			}

			a, err := opts.loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			id, engine := a.CatalogService.NewSession()
			defer a.CatalogService.CloseSession(id)

			st := engine.LoadFirstPage(cmd.Context(), spec)
			for i := 1; i < pages && st.HasMore; i++ {
				st = engine.LoadNextPage(cmd.Context())
			}
			printExercises(opts.out, st.Items)
			fmt.Fprintf(opts.out, "\n%d of %d", len(st.Items), st.TotalCount)
			if st.HasMore {
				fmt.Fprint(opts.out, " (more)")
			}
			fmt.Fprintln(opts.out)
			for _, g := range st.Suggestions {
				fmt.Fprintf(opts.out, "Try %s (%s): %d matches\n", g.Subregion, g.Region, g.MatchCount)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sub, "subregion", "", "canonical subregion, e.g. Chest")
	cmd.Flags().StringVar(&deep, "deep", "", "deep subregion, e.g. \"Upper Chest\"")
	cmd.Flags().StringVar(&equip, "equipment", "", "equipment bucket")
	cmd.Flags().StringVar(&move, "movement", "", "movement bucket")
	cmd.Flags().StringVarP(&spec.Query, "query", "q", "", "free-text search")
	cmd.Flags().StringVar(&spec.Category, "category", "", "category")
	cmd.Flags().IntVar(&pages, "pages", 1, "pages to load")
	return cmd
}

func customCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "custom",
		Short: "Manage custom exercises",
	}
	cmd.AddCommand(customListCmd(opts))
	cmd.AddCommand(customAddCmd(opts))
	cmd.AddCommand(customDeleteCmd(opts))
	return cmd
}

func customListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List custom exercises",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.ExerciseService.ListCustomExercises(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(opts.out, "No custom exercises.")
				return nil
			}
			printExercises(opts.out, list)
			return nil
		},
	}
}

func customAddCmd(opts *rootOptions) *cobra.Command {
	var (
		primary   []string
		secondary []string
		equip     string
		move      string
	)

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a custom exercise",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			ex, err := a.ExerciseService.CreateCustomExercise(cmd.Context(), service.CustomExerciseInput{
				Name:             strings.Join(args, " "),
				PrimaryMuscles:   primary,
				SecondaryMuscles: secondary,
				Equipment:        domain.EquipmentBucket(equip),
				Movement:         domain.MovementBucket(move),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.out, "Added %s: %s\n", ex.ID, ex.Name)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&primary, "primary", nil, "primary muscles")
	cmd.Flags().StringSliceVar(&secondary, "secondary", nil, "secondary muscles")
	cmd.Flags().StringVar(&equip, "equipment", "", "equipment bucket")
	cmd.Flags().StringVar(&move, "movement", "", "movement bucket")
	return cmd
}

func customDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a custom exercise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ExerciseService.DeleteCustomExercise(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(opts.out, "Deleted %s\n", args[0])
			return nil
		},
	}
}

func printExercises(out io.Writer, list []domain.Exercise) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEQUIPMENT\tMOVEMENT\tPRIMARY")
	for _, ex := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", ex.ID, ex.Name, ex.Equipment, ex.Movement, strings.Join(ex.PrimaryMuscles, ", "))
	}
	tw.Flush()
}
