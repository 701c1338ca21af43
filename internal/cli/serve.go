package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/townforge/townforge/internal/bus"
	"github.com/townforge/townforge/internal/config"
	"github.com/townforge/townforge/internal/queryapi"
)

var serveCmd = &cobra.Command{
	Use:   "api",
	Short: "Run the query API HTTP server (C11)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		store, geo, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		queue, redisClient, err := openQueue(cfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		codes := bus.NewLinkCodeStore(redisClient)

		server := queryapi.New(store, queue, codes, geo, cfg.BlueMap.WebURL)

		addr := fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port)
		printHeader("townforge serve")
		fmt.Printf("listening on %s\n", addr)
		return http.ListenAndServe(addr, server)
	},
}
