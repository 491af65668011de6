package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"inkblog/api"
	"inkblog/auth"
	"inkblog/cache"
	"inkblog/repository"
	"inkblog/search"
	"inkblog/storage"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Serve the JSON API",
	RunE:  runAPI,
}

func runAPI(cmd *cobra.Command, _ []string) error {
	cfg, log, err := load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateAPI(); err != nil {
		return err
	}

	ctx := cmd.Context()

	pool, err := pgxpool.New(ctx, cfg.DB.URL())
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer pool.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	if err := repository.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}
	log.Info("db connected", "host", cfg.DB.Host, "name", cfg.DB.Name)

	es, err := search.New(cfg.ESAddr, cfg.ESIndex)
	if err != nil {
		return fmt.Errorf("es init: %w", err)
	}
	if err := es.EnsureIndex(ctx); err != nil {
		log.Warn("es index not ensured", "index", cfg.ESIndex, "error", err)
	}

	rc := cache.New(cfg.RedisAddr, cfg.RedisDB, cfg.CacheTTL)
	defer rc.Cli.Close()
	if err := rc.Ping(ctx); err != nil {
		log.Warn("redis unreachable, cache calls will fail", "addr", cfg.RedisAddr, "error", err)
	}

	objects, err := storage.New(storage.Config{
		AccessKey:    cfg.S3.AccessKey,
		AccessSecret: cfg.S3.SecretKey,
		Region:       cfg.S3.Region,
		Bucket:       cfg.S3.Bucket,
		Endpoint:     cfg.S3.Endpoint,
		PublicURL:    cfg.S3.PublicURL,
	})
	if err != nil {
		return fmt.Errorf("s3 init: %w", err)
	}

	srv := &api.Server{
		Users:             repository.NewUserRepo(pool),
		Posts:             repository.NewPostRepo(pool),
		Cache:             rc,
		Index:             es,
		Objects:           objects,
		Tokens:            auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL),
		Log:               log,
		ThumbnailMaxBytes: cfg.ThumbnailMaxBytes,
	}

	log.Info("api listening", "port", cfg.AppPort)
	return serve(ctx, ":"+cfg.AppPort, srv.Router())
}

// serve runs h until ctx is cancelled, then drains for up to ten seconds.
func serve(ctx context.Context, addr string, h http.Handler) error {
	hs := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	}
}
