package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/townforge/townforge/internal/config"
	"github.com/townforge/townforge/internal/plugin"
	"github.com/townforge/townforge/internal/processor"
	"github.com/townforge/townforge/internal/rcon"
)

var processCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the job processor (C5): drain queue:worldgen and build the world",
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

		lockPath, err := config.ConfigPath()
		if err != nil {
			return err
		}
		lock := rcon.NewInstanceLock(filepath.Join(filepath.Dir(lockPath), "rcon.lock"))
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire instance lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("another processor already owns the command channel (spec.md invariant R1)")
		}
		defer lock.Unlock()

		addr := fmt.Sprintf("%s:%d", cfg.Rcon.Host, cfg.Rcon.Port)
		client := rcon.NewClient(addr, cfg.Rcon.Password, rcon.WithCommandDelay(time.Duration(cfg.Rcon.CommandDelayMs)*time.Millisecond))
		if err := client.Dial(cmd.Context()); err != nil {
			return fmt.Errorf("dial rcon %s: %w", addr, err)
		}
		defer client.Close()

		markers := plugin.NewClient(cfg.Plugin.BaseURL)

		proc := processor.New(store, queue, client, markers, geo)

		printHeader("townforge process")
		fmt.Printf("rcon=%s plugin=%s\n", addr, cfg.Plugin.BaseURL)

		if err := proc.Reconcile(cmd.Context()); err != nil {
			return fmt.Errorf("reconcile dangling jobs: %w", err)
		}
		if err := proc.EnsureCrossroads(cmd.Context()); err != nil {
			return fmt.Errorf("ensure crossroads: %w", err)
		}
		return proc.Run(cmd.Context())
	},
}
