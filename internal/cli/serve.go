package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/declutter/pkg/cache"
	"github.com/matzehuels/declutter/pkg/server"
)

// serveCommand creates the HTTP server command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr          string
		redisAddr     string
		redisPassword string
		redisDB       int
		sessionTTL    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve generalization sessions over HTTP",
		Long: `Serve generalization over HTTP.

Clients open a session with POST /v1/sessions and post scenes to
/v1/sessions/{id}/generalize. Sessions and their placements live in
memory, or in Redis when --redis is given so several instances can
share them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			var store cache.Cache = cache.NewMemoryCache()
			if redisAddr != "" {
				spinner := newSpinnerWithContext(ctx, "Connecting to Redis at "+redisAddr+"...")
				spinner.Start()
				rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
					Addr:     redisAddr,
					Password: redisPassword,
					DB:       redisDB,
					Prefix:   appName + ":",
				})
				if err != nil {
					spinner.StopWithError("Redis unavailable")
					return err
				}
				spinner.StopWithSuccess("Connected to Redis")
				store = rc
			}

			srv := server.New(server.Config{
				Addr:       addr,
				Cache:      store,
				SessionTTL: sessionTTL,
				Logger:     logger,
			})
			defer srv.Close()

			printInfo("Serving on %s", StyleHighlight.Render(addr))
			printDetail("Press Ctrl+C to stop")
			return srv.ListenAndServe(ctx)
		},
	}

	defaultDB, _ := strconv.Atoi(envOr("REDIS_DB", "0"))
	cmd.Flags().StringVar(&addr, "addr", envOr("ADDR", server.DefaultAddr), "listen address ($DECLUTTER_ADDR)")
	cmd.Flags().StringVar(&redisAddr, "redis", envOr("REDIS_ADDR", ""), "Redis address for shared sessions ($DECLUTTER_REDIS_ADDR)")
	cmd.Flags().StringVar(&redisPassword, "redis-password", envOr("REDIS_PASSWORD", ""), "Redis password ($DECLUTTER_REDIS_PASSWORD)")
	cmd.Flags().IntVar(&redisDB, "redis-db", defaultDB, "Redis database number ($DECLUTTER_REDIS_DB)")
	cmd.Flags().DurationVar(&sessionTTL, "session-ttl", cache.TTLState, "idle session lifetime")

	return cmd
}
