// file: cmd/root.go
// version: 1.3.0
// guid: 2a4b6c8d-0e2f-4a4b-8c6d-0e2f4a6b8c0a

// Package cmd holds the command-line surface of the bot.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vgrab/video-downloader-bot/internal/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "video-downloader-bot",
	Short: "Telegram bot that downloads videos from links",
	Long: `Video Downloader Bot receives links in Telegram chats, fetches the
media with yt-dlp or plain HTTP, and sends the file back to the user.

It supports direct file links, YouTube (with quality selection) and the
major social platforms.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.video-downloader-bot.yaml)")
	rootCmd.PersistentFlags().String("downloads", "./downloads", "directory for downloaded files")
	rootCmd.PersistentFlags().Int("status-port", 8080, "port for the status HTTP server")

	viper.BindPFlag("download_dir", rootCmd.PersistentFlags().Lookup("downloads"))
	viper.BindPFlag("status_port", rootCmd.PersistentFlags().Lookup("status-port"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(diagnosticsCmd)
}

func initConfig() {
	// .env files are the common deployment shape for bot tokens
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".video-downloader-bot")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	config.InitConfig()
}
