package cmd

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/portfolio-cms/apiserver/internal/mq"
	"github.com/portfolio-cms/apiserver/internal/notify"
	"github.com/resend/resend-go/v2"
	"github.com/spf13/cobra"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Email the site owner about new contact messages",
	Long: `Consumes contact events from the configured message queue and sends one
email per message through Resend. Requires MQ_BACKEND, RESEND_API_KEY,
NOTIFY_FROM and NOTIFY_TO.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := loadConfig()
		if cfg.Notify.ResendAPIKey == "" || cfg.Notify.From == "" {
			return errors.New("RESEND_API_KEY and NOTIFY_FROM are required")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		queue, err := mq.NewFromConfig(ctx, cfg.MQ)
		if err != nil {
			if errors.Is(err, mq.ErrDisabled) {
				return errors.New("MQ_BACKEND is required for the notification worker")
			}
			return err
		}
		defer func() {
			if err := queue.Close(); err != nil {
				logger.Warn().Err(err).Msg("close message queue")
			}
		}()

		sender := notify.NewResendSender(resend.NewClient(cfg.Notify.ResendAPIKey), cfg.Notify.From, logger)
		worker, err := notify.NewWorker(queue, sender, cfg.Notify, logger)
		if err != nil {
			return err
		}
		if err := worker.Run(ctx); err != nil {
			return fmt.Errorf("notification worker: %w", err)
		}
		logger.Info().Msg("notification worker stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}
