package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "xdbot",
	Short: "xdbot is a multi-platform group chat bot",
	Long: `xdbot is a group chat bot that runs on multiple IM platforms
(Discord, Telegram, Feishu, DingTalk) and provides group entertainment
features: blackjack, dice, a sleep diary, Minecraft server status lookups
and daily Epic Games free-game notifications.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(versionCmd)
}
