package cli

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/townforge/townforge/internal/config"
)

func checkmark(ok bool) string {
	if ok {
		return color.GreenString("ok")
	}
	return color.RedString("unreachable")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("townforge version")
		fmt.Printf("Version: %s\n", version)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and connectivity status",
	RunE: func(cmd *cobra.Command, args []string) error {
		printHeader("townforge status")

		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		fmt.Printf("Config:   %s\n", path)

		store, _, err := openStore(cfg)
		storeOK := err == nil
		if storeOK {
			store.Close()
		}
		fmt.Printf("Store:    %s [%s]\n", cfg.Store.ConnectionString, checkmark(storeOK))

		rconAddr := fmt.Sprintf("%s:%d", cfg.Rcon.Host, cfg.Rcon.Port)
		fmt.Printf("Rcon:     %s [%s]\n", rconAddr, checkmark(dialTCP(rconAddr)))

		fmt.Printf("Plugin:   %s\n", cfg.Plugin.BaseURL)
		fmt.Printf("Kafka:    %s (group %s)\n", cfg.Bus.KafkaBrokers, cfg.Bus.ConsumerGroup)

		redisClient, rerr := openRedisClient(cfg)
		redisOK := false
		if rerr == nil {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
			redisOK = redisClient.Ping(ctx).Err() == nil
			cancel()
			redisClient.Close()
		}
		fmt.Printf("Redis:    %s [%s]\n", cfg.Bus.RedisURL, checkmark(redisOK))
		fmt.Printf("Gateway:  %s:%d\n", cfg.Gateway.Host, cfg.Gateway.Port)
		return nil
	},
}

func dialTCP(addr string) bool {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
