package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidbridge/vidbridge/color"
	"github.com/vidbridge/vidbridge/config"
	"github.com/vidbridge/vidbridge/icon"
	"github.com/vidbridge/vidbridge/key"
	"github.com/vidbridge/vidbridge/relay"
	"github.com/vidbridge/vidbridge/style"
)

func init() {
	rootCmd.AddCommand(relayCmd)

	relayCmd.Flags().StringP("addr", "a", "", "Listen address")
	lo.Must0(viper.BindPFlag(key.RelayAddr, relayCmd.Flags().Lookup("addr")))
}

// relayCmd runs the websocket hub carrying the broadcast channels.
var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run the websocket relay that carries broadcast channels between processes",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr := viper.GetString(key.RelayAddr)
		hub := relay.NewHub(config.Seconds(key.RelayPingInterval))

		fmt.Printf("%s relay listening on %s\n", style.Fg(color.Green)(icon.Get(icon.Live)), style.Bold(addr))

		handleErr(relay.Serve(ctx, addr, hub))
		fmt.Println(style.Faint("relay stopped"))
	},
}
