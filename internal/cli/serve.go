package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/xbpar/internal/server"
	"github.com/matzehuels/xbpar/pkg/cache"
	"github.com/matzehuels/xbpar/pkg/pipeline"
	"github.com/matzehuels/xbpar/pkg/store"
)

// serveOpts holds the flags of the serve command.
type serveOpts struct {
	addr    string
	redis   string
	mongo   string
	mongoDB string
	runsDir string
	noCache bool
	timeout time.Duration
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var so serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the placement HTTP API",
		Long: `Run the placement HTTP API.

Placements are cached in Redis when --redis (or $XBPAR_REDIS_ADDR) is set and
in the local cache directory otherwise. Runs are archived in MongoDB with
--mongo (or $XBPAR_MONGO_URI), in a directory with --runs-dir, or not at all.`,
		Example: `  xbpar serve --addr :8080
  xbpar serve --redis redis://localhost:6379/0 --mongo mongodb://localhost:27017`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("redis") {
				so.redis = os.Getenv(envRedisAddr)
			}
			if !cmd.Flags().Changed("mongo") {
				so.mongo = os.Getenv(envMongoURI)
			}
			return c.runServe(cmd.Context(), so)
		},
	}

	cmd.Flags().StringVar(&so.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&so.redis, "redis", "", "Redis URL for the placement cache (env "+envRedisAddr+")")
	cmd.Flags().StringVar(&so.mongo, "mongo", "", "MongoDB URI for the run archive (env "+envMongoURI+")")
	cmd.Flags().StringVar(&so.mongoDB, "mongo-db", appName, "MongoDB database name")
	cmd.Flags().StringVar(&so.runsDir, "runs-dir", "", "directory for the run archive when MongoDB is not used")
	cmd.Flags().BoolVar(&so.noCache, "no-cache", false, "disable caching")
	cmd.Flags().DurationVar(&so.timeout, "timeout", 2*time.Minute, "limit per placement request (0: none)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, so serveOpts) error {
	cc, err := c.serveCache(ctx, so)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(cc, newKeyer(), c.Logger)

	st, err := c.serveStore(ctx, so)
	if err != nil {
		runner.Close()
		return err
	}
	runner.Store = st
	defer runner.Close()

	srv := server.New(runner, c.Logger)
	srv.Timeout = so.timeout
	return srv.ListenAndServe(ctx, so.addr)
}

func (c *CLI) serveCache(ctx context.Context, so serveOpts) (cache.Cache, error) {
	switch {
	case so.noCache:
		return cache.NewNullCache(), nil
	case so.redis != "":
		rc, err := cache.NewRedisCache(ctx, so.redis)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		c.Logger.Info("using redis cache", "url", so.redis)
		return rc, nil
	default:
		return newCache(false)
	}
}

// serveStore returns the run archive, nil when archiving is off.
func (c *CLI) serveStore(ctx context.Context, so serveOpts) (store.Store, error) {
	switch {
	case so.mongo != "":
		ms, err := store.NewMongoStore(ctx, so.mongo, so.mongoDB)
		if err != nil {
			return nil, fmt.Errorf("connect to mongodb: %w", err)
		}
		c.Logger.Info("using mongodb run archive", "database", so.mongoDB)
		return ms, nil
	case so.runsDir != "":
		fs, err := store.NewFileStore(so.runsDir)
		if err != nil {
			return nil, fmt.Errorf("open run archive: %w", err)
		}
		c.Logger.Info("using file run archive", "dir", fs.Path())
		return fs, nil
	default:
		return nil, nil
	}
}
