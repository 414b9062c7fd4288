package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidbridge/vidbridge/color"
	"github.com/vidbridge/vidbridge/config"
	"github.com/vidbridge/vidbridge/icon"
	"github.com/vidbridge/vidbridge/key"
	"github.com/vidbridge/vidbridge/log"
	"github.com/vidbridge/vidbridge/player"
	"github.com/vidbridge/vidbridge/protocol"
	"github.com/vidbridge/vidbridge/style"
	"github.com/vidbridge/vidbridge/transport"
	"github.com/vidbridge/vidbridge/util"
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringP("base-url", "b", "", "Base URL prepended to the media source")
	lo.Must0(viper.BindPFlag(key.PlayerMediaBaseURL, playCmd.Flags().Lookup("base-url")))

	playCmd.Flags().IntP("tab", "t", 0, "Tab identifier announced to controllers")
	lo.Must0(viper.BindPFlag(key.PlayerTabID, playCmd.Flags().Lookup("tab")))

	playCmd.Flags().Bool("no-fit", false, "Keep the player window size on load")
}

// playCmd opens a playback page for one media source.
var playCmd = &cobra.Command{
	Use:     "play <src>",
	Short:   "Open a playback page that controllers can drive",
	Args:    cobra.ExactArgs(1),
	Example: "  vidbridge play trailer.mp4 --channel living-room",
	PreRun: func(cmd *cobra.Command, args []string) {
		if viper.GetString(key.TransportChannel) == "" {
			handleErr(errors.New("a channel is required, pass --channel"))
		}
		CheckDependencies(viper.GetString(key.PlayerExecutable))
	},
	Run: func(cmd *cobra.Command, args []string) {
		src := args[0]

		target, err := player.ResolveSource(viper.GetString(key.PlayerMediaBaseURL), src)
		handleErr(err)

		tabID := viper.GetInt(key.PlayerTabID)
		if tabID == 0 {
			tabID = os.Getpid()
		}
		instance := protocol.Instance{TabID: tabID, Src: src}

		client, err := dial(cmd.Context())
		handleErr(err)
		defer client.Close()

		mpv := player.NewMPV(viper.GetString(key.PlayerExecutable))
		if err := mpv.Start(target, src); err != nil {
			_ = mpv.Close()
			handleErr(err)
		}
		defer mpv.Close()

		fit := viper.GetBool(key.PlayerFitWindow) && !lo.Must(cmd.Flags().GetBool("no-fit"))
		onReady := func(duration time.Duration) {
			fmt.Printf("%s %s ready %s\n",
				style.Fg(color.Green)(icon.Get(icon.Live)),
				style.Bold(instance.String()),
				style.Faint(duration.String()),
			)

			if !fit {
				return
			}
			if err := mpv.Fit(viper.GetInt(key.PlayerScreenWidth), viper.GetInt(key.PlayerScreenHeight)); err != nil {
				log.Debugf("fit window: %s", err)
			}
		}

		closed := make(chan struct{})
		channel, err := openChannel(client, instance, mpv,
			player.WithOnReady(onReady),
			player.WithOnClose(func() { close(closed) }),
		)
		handleErr(err)
		defer channel.Close()

		stopAnnouncing := announce(channel, config.Millis(key.PlayerAnnounce))
		defer stopAnnouncing()

		// pause toggles made in the mpv window are requests to the controller
		mpv.OnPauseChanged(func(paused bool) {
			switch state := channel.State(); {
			case paused && state == player.Playing:
				util.Ignore(channel.Pause)
			case !paused && (state == player.Ready || state == player.Paused):
				util.Ignore(channel.Play)
			}
		})

		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(signals)

		select {
		case <-mpv.Wait():
			log.Info("player exited")
		case <-closed:
			log.Info("closed by controller")
		case <-client.Done():
			log.Warn("relay connection lost")
		case sig := <-signals:
			log.Infof("received %s", sig)
		}
	},
}

// announce repeats the page's ready event every interval until stopped, so
// the bridge keeps listing it.
func announce(channel *player.Channel, interval time.Duration) (stop func()) {
	if interval <= 0 {
		return func() {}
	}

	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := channel.Announce(); err != nil {
					log.Debugf("announce: %s", err)
				}
			}
		}
	}()

	return func() { close(done) }
}

// pageMedia is the player behind a playback page.
type pageMedia interface {
	player.Media
	Close() error
}

// openChannel builds the page's channel. The player is closed when that
// fails, since the caller exits without running its deferred calls.
func openChannel(t transport.Transport, instance protocol.Instance, media pageMedia, options ...player.ChannelOption) (*player.Channel, error) {
	channel, err := player.NewChannel(t, instance, media, nil, options...)
	if err != nil {
		if closeErr := media.Close(); closeErr != nil {
			log.Warnf("close player: %s", closeErr)
		}
		return nil, fmt.Errorf("channel %s: %w", instance, err)
	}
	return channel, nil
}
