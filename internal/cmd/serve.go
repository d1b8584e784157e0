package cmd

import (
	"github.com/spf13/cobra"

	"github.com/aholston/watchdogai/internal/hub"
	"github.com/aholston/watchdogai/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and websocket finding stream",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		addr := a.cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		h := hub.New()
		defer h.Close()
		a.pipe.OnFinding(h.Broadcast)

		return server.New(a.pipe, h, addr).Start()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}
