package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zulandar/switchboard/internal/bridge"
	"github.com/zulandar/switchboard/internal/bridge/discord"
	"github.com/zulandar/switchboard/internal/bridge/slack"
	"github.com/zulandar/switchboard/internal/config"
)

func newBridgeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Run the chat-platform bridge daemon",
		Long:  "Connects the support conversation to Discord or Slack, with idle-session sweeping and a daily ticket digest. Stops on SIGINT/SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBridge(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchboard config file")
	return cmd
}

func runBridge(cmd *cobra.Command, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	adapter, err := buildAdapter(cfg)
	if err != nil {
		return err
	}

	router, _, gormDB, err := buildEngine(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	daemon, err := bridge.NewDaemon(bridge.DaemonOpts{
		DB:      gormDB,
		Config:  cfg,
		Adapter: adapter,
		Engine:  router,
		Out:     cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return daemon.Run(ctx)
}

// buildAdapter creates the platform adapter named in config.
func buildAdapter(cfg *config.Config) (bridge.Adapter, error) {
	switch cfg.Bridge.Platform {
	case "discord":
		token := cfg.BridgeToken()
		if token == "" {
			return nil, fmt.Errorf("no bot token found: set %s", cfg.Bridge.TokenEnv)
		}
		return discord.New(discord.AdapterOpts{
			BotToken:  token,
			ChannelID: cfg.Bridge.ChannelID,
		})
	case "slack":
		token := cfg.BridgeToken()
		if token == "" {
			return nil, fmt.Errorf("no bot token found: set %s", cfg.Bridge.TokenEnv)
		}
		appToken := cfg.BridgeAppToken()
		if appToken == "" {
			return nil, fmt.Errorf("no app token found: set %s", cfg.Bridge.AppTokenEnv)
		}
		return slack.New(slack.AdapterOpts{
			BotToken:  token,
			AppToken:  appToken,
			ChannelID: cfg.Bridge.ChannelID,
		})
	case "":
		return nil, fmt.Errorf("bridge.platform is not set (discord, slack)")
	default:
		return nil, fmt.Errorf("bridge.platform %q is not supported (discord, slack)", cfg.Bridge.Platform)
	}
}
