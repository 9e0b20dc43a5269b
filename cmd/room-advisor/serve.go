package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	roomadvisor "github.com/menta2k/room-advisor"
	"github.com/menta2k/room-advisor/internal/profile"
	"github.com/menta2k/room-advisor/internal/server"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var port int
	var memoryProfile bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the upload and profile HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			advisor, err := roomadvisor.New(cfg)
			if err != nil {
				return err
			}
			defer advisor.Close()

			var store profile.Store
			if memoryProfile {
				store = profile.NewMemoryStore()
			} else {
				redisStore := profile.NewRedisStore(profile.NewRedisPool(cfg.Profile.RedisAddress, 10), cfg.Profile.Key)
				defer redisStore.Close()
				store = redisStore
			}

			srv := server.New(server.Config{
				UploadDir: cfg.Server.UploadDir,
				PublicURL: cfg.Server.PublicURL,
			}, advisor.Pipeline(), store, logrus.StandardLogger())

			return srv.Run(cmd.Context(), fmt.Sprintf(":%d", cfg.Server.Port))
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides PORT)")
	cmd.Flags().BoolVar(&memoryProfile, "memory-profile", false, "keep the profile in memory instead of Redis")
	return cmd
}
