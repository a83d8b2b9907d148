package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"golang.org/x/sync/errgroup"

	"github.com/frame-vault/framevault/src/framevaultd/cmd/utils"
	"github.com/frame-vault/framevault/src/pkg/api"
	"github.com/frame-vault/framevault/src/pkg/events"
	"github.com/frame-vault/framevault/src/pkg/history"
	"github.com/frame-vault/framevault/src/pkg/normalize"
	"github.com/frame-vault/framevault/src/pkg/settings"
	"github.com/frame-vault/framevault/src/pkg/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the media store HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, configPathErr := cmd.Flags().GetString("config")
		if configPathErr != nil {
			return fmt.Errorf("failed to get config: %w", configPathErr)
		}

		config, configErr := settings.Load(configPath)
		if configErr != nil {
			return configErr
		}
		slog.Debug("read config", "config", config)

		normalizer := normalize.New(normalize.Config{
			Width:    config.Width,
			Height:   config.Height,
			MaxBytes: config.MaxUploadBytes,
		})

		mediaStore, storeErr := store.New(config.Root, config.MaxImages, normalizer)
		if storeErr != nil {
			return fmt.Errorf("failed to create store: %w", storeErr)
		}

		// Catch up if the capacity was lowered while the daemon was down.
		if reconcileErr := mediaStore.Reconcile(config.MaxImages); reconcileErr != nil {
			return fmt.Errorf("failed to reconcile capacity: %w", reconcileErr)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		publisher := events.NewEventPublisher(ctx)
		mediaStore.Subscribe(publisher)

		var recorder *history.Recorder
		if config.HistoryDB != "" {
			var openErr error
			recorder, openErr = history.Open(config.HistoryDB)
			if openErr != nil {
				return fmt.Errorf("failed to open history database: %w", openErr)
			}
			defer func() {
				if closeErr := recorder.Close(); closeErr != nil {
					slog.Warn("failed to close history database", "error", closeErr)
				}
			}()
			mediaStore.Subscribe(recorder)
		}

		mux := http.NewServeMux()
		api.NewHandler(mediaStore, publisher, recorder, config.MaxUploadBytes).Register(mux)

		spec, specErr := utils.GenerateOpenAPISpecs()
		if specErr != nil {
			return specErr
		}
		mux.HandleFunc("GET "+api.PathPrefix+"/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			if _, writeErr := w.Write([]byte(spec)); writeErr != nil {
				slog.Warn("failed to write OpenAPI spec", "error", writeErr)
			}
		})
		mux.Handle("GET /swagger/", httpSwagger.Handler(
			httpSwagger.URL(api.PathPrefix+"/openapi.yaml"),
		))

		server := &http.Server{
			Addr:    fmt.Sprintf(":%d", config.Port),
			Handler: api.RequestLogger(mux),
		}

		group, ctx := errgroup.WithContext(ctx)
		group.Go(func() error {
			slog.Info("starting server", "addr", server.Addr, "root", config.Root, "max_images", config.MaxImages)
			if serveErr := server.ListenAndServe(); !errors.Is(serveErr, http.ErrServerClosed) {
				return serveErr
			}
			return nil
		})
		group.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
		group.Go(func() error {
			return watchConfig(ctx, configPath, mediaStore)
		})

		return group.Wait()
	},
}

// watchConfig reacts to edits of the config file at runtime. Only
// max_images is applied live, through a reconciliation pass; everything
// else needs a restart.
func watchConfig(ctx context.Context, configPath string, mediaStore *store.Store) (retErr error) {
	watcher, watcherErr := fsnotify.NewWatcher()
	if watcherErr != nil {
		return watcherErr
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil {
			if retErr == nil {
				retErr = closeErr
			} else {
				retErr = errors.Join(retErr, closeErr)
			}
		}
	}()

	// Watch the directory: editors and config tools replace the file,
	// which would orphan a watch on the file itself.
	if addErr := watcher.Add(filepath.Dir(configPath)); addErr != nil {
		return addErr
	}
	base := filepath.Base(configPath)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			config, loadErr := settings.Load(configPath)
			if loadErr != nil {
				slog.Warn("ignoring invalid config change", "error", loadErr)
				continue
			}

			if config.MaxImages == mediaStore.Capacity() {
				continue
			}

			slog.Info("applying new capacity", "max_images", config.MaxImages)
			if reconcileErr := mediaStore.Reconcile(config.MaxImages); reconcileErr != nil {
				slog.Error("failed to reconcile capacity", "error", reconcileErr)
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			slog.Warn("config watcher error", "error", watchErr)
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "Path to the daemon's config file")
	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		panic(fmt.Errorf("failed to mark flag `config` as required: %w", err))
	}
}
