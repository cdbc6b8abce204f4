package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kpauljoseph/annotanki/pkg/models"
)

var summaryTestCmd = &cobra.Command{
	Use:   "summary-test",
	Short: "Send a sample summary email to check the SMTP settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		to := viper.GetString("email-to")
		if to == "" {
			to = cfg.Email.To
		}
		if to == "" {
			return fmt.Errorf("no recipient: set email.to in the config or pass --email-to")
		}
		if cfg.Email.Password == "" {
			return fmt.Errorf("no SMTP password is set")
		}

		notifier, err := newNotifier(cfg)
		if err != nil {
			return err
		}

		sample := []models.Flashcard{{
			Front: "What does this email check?",
			Back:  "That the SMTP settings work.\n\nSource: <a href='https://hypothes.is'>Link</a>",
			Tags:  []string{"test", cfg.Anki.CustomTag},
		}}
		if err := notifier.SendSummary(cmd.Context(), to, sample); err != nil {
			return err
		}

		log.Info("Test email sent to %s", to)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryTestCmd)
}
