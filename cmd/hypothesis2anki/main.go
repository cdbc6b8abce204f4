package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kpauljoseph/annotanki/internal/config"
	"github.com/kpauljoseph/annotanki/pkg/logger"
)

const (
	defaultConfigPath = "config.yaml"
	envPrefix         = "ANNOTANKI"
)

var (
	log = logger.New(logger.WithPrefix("[hypothesis2anki] "))
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "hypothesis2anki",
	Short: "Turn new Hypothes.is annotations into Anki notes",
	Long: `hypothesis2anki fetches the annotations created since the last run from the
Hypothes.is search API and adds each one to Anki through AnkiConnect. Anki is
started if it is not running and closed again afterwards.

Progress is kept in two flat files: the creation time of the newest fetched
annotation and the IDs of every annotation already turned into a note.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runSync,
}

func init() {
	cobra.OnInitialize(initEnv)

	pf := rootCmd.PersistentFlags()
	pf.String("config", defaultConfigPath, "path to config file")
	pf.Bool("verbose", false, "enable verbose logging")
	pf.Bool("debug", false, "enable debug mode with trace logging")
	pf.String("email-to", "", "email a summary of the new cards to this address (overrides config)")

	rootCmd.Flags().Bool("keep-open", false, "leave Anki running after the sync")
	rootCmd.Flags().Bool("no-launch", false, "fail instead of starting Anki when it is not running")

	_ = viper.BindPFlags(pf)
	_ = viper.BindPFlags(rootCmd.Flags())
}

// initEnv lets every flag be set from the environment as well, e.g.
// ANNOTANKI_EMAIL_TO or ANNOTANKI_KEEP_OPEN.
func initEnv() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func setup(cmd *cobra.Command, args []string) error {
	log.SetVerbose(viper.GetBool("verbose"))
	if viper.GetBool("debug") {
		log.SetLevel(logger.LevelTrace)
	}

	configPath := viper.GetString("config")
	loaded, err := config.LoadOrDefault(configPath, configPath == defaultConfigPath)
	if err != nil {
		return err
	}
	cfg = loaded
	log.Debug("Loaded configuration from %s", configPath)

	if to := viper.GetString("email-to"); to != "" {
		cfg.Email.Enabled = true
		cfg.Email.To = to
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Fatal("%v", err)
	}
}
