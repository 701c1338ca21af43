package cli

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/townforge/townforge/internal/config"
)

var syncFile string
var syncGatewayURL string

func init() {
	syncCmd.Flags().StringVar(&syncFile, "file", "-", "path to a mappings.json payload (- for stdin)")
	syncCmd.Flags().StringVar(&syncGatewayURL, "gateway", "", "query API base URL (defaults to gateway.host:port from config)")
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Bulk-reconcile a guild's groups and channels via the running query API (§4.11 mappings sync)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		base := syncGatewayURL
		if base == "" {
			base = fmt.Sprintf("http://%s:%d", cfg.Gateway.Host, cfg.Gateway.Port)
		}

		var body io.Reader
		if syncFile == "-" {
			body = os.Stdin
		} else {
			f, err := os.Open(syncFile)
			if err != nil {
				return fmt.Errorf("open %s: %w", syncFile, err)
			}
			defer f.Close()
			body = f
		}

		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, base+"/api/mappings/sync", body)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("post mappings sync to %s: %w", base, err)
		}
		defer resp.Body.Close()

		printHeader("townforge sync")
		fmt.Printf("POST %s/api/mappings/sync -> %s\n", base, resp.Status)
		io.Copy(os.Stdout, resp.Body)
		fmt.Println()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("sync request failed: %s", resp.Status)
		}
		return nil
	},
}
