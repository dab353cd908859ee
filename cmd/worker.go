package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mechmaster/subscription-management/internal/core/events"
	"github.com/mechmaster/subscription-management/internal/paymentgateway"
	"github.com/mechmaster/subscription-management/internal/subscription"
	subscriptionPostgres "github.com/mechmaster/subscription-management/internal/subscription/postgres"
	"github.com/mechmaster/subscription-management/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start scheduled background jobs like the subscription expiry sweeper`,
}

var expiryWorkerCmd = &cobra.Command{
	Use:   "expiry",
	Short: "Start the subscription expiry sweeper",
	Long:  `Periodically flips subscriptions whose end date has passed to inactive`,
	Run: func(cmd *cobra.Command, args []string) {
		startExpiryWorker()
	},
}

var expirySchedule string

func startExpiryWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize gorm: %v\n", err)
		os.Exit(1)
	}

	eventBus := events.NewEventBus(lg)
	gatewayClient := paymentgateway.NewClient(paymentgateway.Config{
		APIURL:    config.Razorpay.APIURL,
		KeyID:     config.Razorpay.KeyID,
		KeySecret: config.Razorpay.KeySecret,
		Timeout:   config.Razorpay.Timeout,
	}, lg)

	repo := subscriptionPostgres.NewSubscriptionRepository(gormDB)
	service := subscription.NewService(gatewayClient, repo, config.Razorpay.KeySecret, eventBus, lg)

	c := cron.New()
	if _, err := c.AddFunc(expirySchedule, func() {
		count, err := service.DeactivateExpired(context.Background())
		if err != nil {
			lg.Error("expiry sweep failed", "error", err)
			return
		}
		lg.Info("expiry sweep completed", "deactivated", count)
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to schedule expiry sweep: %v\n", err)
		os.Exit(1)
	}

	c.Start()
	lg.Info("expiry sweeper started", "schedule", expirySchedule)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	lg.Info("received signal, shutting down expiry sweeper", "signal", sig)

	ctx := c.Stop()
	<-ctx.Done()
	lg.Info("expiry sweeper stopped")
}

func init() {
	expiryWorkerCmd.Flags().StringVar(&expirySchedule, "schedule", "17 3 * * *", "cron schedule for the expiry sweep")

	workerCmd.AddCommand(expiryWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
