package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/townforge/townforge/internal/bus"
	"github.com/townforge/townforge/internal/config"
	"github.com/townforge/townforge/internal/consumer"
)

var consumeCmd = &cobra.Command{
	Use:   "consumer",
	Short: "Run the event consumer (C4): chat-platform events -> catalogue + job queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		store, _, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		queue, redisClient, err := openQueue(cfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		transport := bus.NewConsumer(cfg.Bus.KafkaBrokers, cfg.Bus.ConsumerGroup, []string{
			bus.TopicDiscordChannel,
			bus.TopicMinecraftPlayer,
			bus.TopicWorldActivity,
		})

		router := consumer.NewRouter(store, queue, transport)
		printHeader("townforge consume")
		fmt.Printf("brokers=%s group=%s\n", cfg.Bus.KafkaBrokers, cfg.Bus.ConsumerGroup)
		return router.Run(cmd.Context())
	},
}
