package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/aristath/careercrew/internal/api"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web UI and the report API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}

			sc := a.cfg.Server
			if addr != "" {
				sc.Addr = addr
			}

			srv := api.NewServer(api.Options{
				Engine:      eng,
				Providers:   a.cfg.Handles(),
				Metrics:     a.recorder.Handler(),
				StaticDir:   sc.StaticDir,
				MaxInputLen: sc.MaxInputLen,
				Version:     version,
				Logger:      a.logger,
				LookupEnv:   a.lookupEnv,
			})

			httpSrv := &http.Server{
				Addr:         sc.Addr,
				Handler:      srv.Handler(),
				ReadTimeout:  sc.ReadTimeout,
				WriteTimeout: sc.WriteTimeout,
			}
			return api.Serve(cmd.Context(), httpSrv, sc.ShutdownTimeout, a.logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}
