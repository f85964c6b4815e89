package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wenlin9/xdbot/internal/bot"
	"github.com/wenlin9/xdbot/internal/core"
	"github.com/wenlin9/xdbot/internal/epic"
	"github.com/wenlin9/xdbot/internal/feature"
	"github.com/wenlin9/xdbot/internal/logger"
	"github.com/wenlin9/xdbot/internal/mc"
	"github.com/wenlin9/xdbot/internal/session"
)

var (
	configFile string

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start xdbot main process",
		Long:  "Start xdbot main process, listen to group messages and dispatch to feature handlers",
		Run: func(cmd *cobra.Command, args []string) {
			// Credentials may come from a .env file next to the binary
			if err := godotenv.Load(); err == nil {
				log.Println("Loaded environment from .env")
			}

			// Load configuration
			config, err := core.LoadConfig(configFile)
			if err != nil {
				log.Fatalf("Failed to load config: %v", err)
			}

			fmt.Printf("Starting xdbot with config: %s\n", configFile)
			fmt.Printf("Daily push: %02d:00 %s\n", config.Epic.PushHour, config.Epic.Timezone)

			// Initialize logger
			logConfig := logger.Config{
				Level:        config.Logging.Level,
				File:         config.Logging.File,
				MaxSize:      config.Logging.MaxSize,
				MaxBackups:   config.Logging.MaxBackups,
				MaxAge:       config.Logging.MaxAge,
				Compress:     config.Logging.Compress,
				EnableStdout: config.Logging.EnableStdout,
			}
			if err := logger.InitLogger(logConfig); err != nil {
				log.Fatalf("Failed to initialize logger: %v", err)
			}

			logger.WithFields(logrus.Fields{
				"config_file": configFile,
				"log_level":   config.Logging.Level,
				"log_file":    config.Logging.File,
			}).Info("logger-initialized")

			loc, err := config.PushLocation()
			if err != nil {
				log.Fatalf("Failed to resolve timezone: %v", err)
			}

			// Shared state and external clients
			store := session.NewStore()
			epicClient := epic.NewClient(config.Epic.URL)
			querier := mc.NewQuerier(config.MinecraftTimeout())

			// Feature handlers, ordered; the dice handler is the catch-all
			// and must stay last
			router := feature.NewRouter(
				feature.NewBlackjackHandler(store),
				feature.NewEpicHandler(store, epicClient),
				feature.NewSleepHandler(store, loc),
				feature.NewMinecraftHandler(store, querier),
				feature.NewCreditHandler(),
				feature.NewDeepSeekHandler(),
				feature.NewDiceHandler(),
			)

			engine := core.NewEngine(config, store, router, epicClient)

			// Register bot adapters
			for botType, botConfig := range config.Bots {
				if !botConfig.Enabled {
					log.Printf("Bot %s is disabled, skipping", botType)
					continue
				}

				switch botType {
				case "discord":
					engine.RegisterBotAdapter(botType, bot.NewDiscordBot(botConfig.Token, botConfig.ChannelID))
					log.Printf("Registered %s bot adapter", botType)

				case "telegram":
					engine.RegisterBotAdapter(botType, bot.NewTelegramBot(botConfig.Token))
					log.Printf("Registered %s bot adapter (long polling)", botType)

				case "feishu":
					feishuBot := bot.NewFeishuBot(botConfig.AppID, botConfig.AppSecret)
					// Set optional encryption fields if provided
					if botConfig.EncryptKey != "" {
						feishuBot.EncryptKey = botConfig.EncryptKey
					}
					if botConfig.VerificationToken != "" {
						feishuBot.VerificationToken = botConfig.VerificationToken
					}
					engine.RegisterBotAdapter(botType, feishuBot)
					log.Printf("Registered %s bot adapter (WebSocket long connection)", botType)

				case "dingtalk":
					engine.RegisterBotAdapter(botType, bot.NewDingTalkBot(botConfig.AppID, botConfig.AppSecret))
					log.Printf("Registered %s bot adapter (WebSocket long connection)", botType)

				default:
					log.Printf("Warning: Bot type '%s' not implemented", botType)
				}
			}

			// Setup signal handling for graceful shutdown
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			// Start engine in a goroutine
			engineErrChan := make(chan error, 1)
			go func() {
				fmt.Println("\nxdbot engine starting...")
				fmt.Println("Press Ctrl+C to stop")
				engineErrChan <- engine.Run(ctx)
			}()

			// Wait for signal or engine error
			select {
			case sig := <-sigChan:
				log.Printf("Received signal: %v, shutting down gracefully...", sig)
				cancel()
				if err := engine.Stop(); err != nil {
					log.Printf("Error during shutdown: %v", err)
				}
			case err := <-engineErrChan:
				if err != nil {
					log.Fatalf("Engine error: %v", err)
				}
			}

			log.Println("xdbot stopped")
		},
	}
)

func init() {
	startCmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "Configuration file path")
}
