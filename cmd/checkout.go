package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mechmaster/subscription-management/internal/checkout"
	"github.com/mechmaster/subscription-management/internal/core/events"
	"github.com/mechmaster/subscription-management/internal/paymentgateway"
	"github.com/mechmaster/subscription-management/internal/subscription"
	subscriptionPostgres "github.com/mechmaster/subscription-management/internal/subscription/postgres"
	"github.com/mechmaster/subscription-management/pkg/logger"
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Checkout flow commands",
}

var checkoutLaunchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Run the payment launch flow for a user",
	Long: `Loads the checkout widget, creates a gateway order for the fixed
subscription price, and waits for the payment callback until the configured
user-action timeout. Useful for smoke-testing the gateway configuration.`,
	Run: func(cmd *cobra.Command, args []string) {
		runCheckoutLaunch()
	},
}

var (
	checkoutUserID  int64
	checkoutName    string
	checkoutEmail   string
	checkoutContact string
)

func runCheckoutLaunch() {
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

	widget := checkout.NewHostedWidget(config.Checkout.WidgetURL, config.Razorpay.Timeout, lg)
	launcher := checkout.NewLauncher(widget, service, service, config.Checkout.UserActionTimeout, lg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		lg.Info("received signal, dismissing checkout", "signal", sig)
		launcher.Dismiss()
	}()

	result, err := launcher.Run(context.Background(), checkoutUserID, checkout.Prefill{
		Name:    checkoutName,
		Email:   checkoutEmail,
		Contact: checkoutContact,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Checkout launch failed: %v\n", err)
		os.Exit(1)
	}

	lg.Info("checkout launch finished", "state", result.State.String())
	if result.Order != nil {
		lg.Info("gateway order", "order_id", result.Order.ID, "amount", result.Order.Amount)
	}
	if result.Verification != nil {
		lg.Info("subscription activated",
			"payment_id", result.Verification.PaymentID,
			"valid_until", result.Verification.ValidUntil)
	}
}

func init() {
	checkoutLaunchCmd.Flags().Int64Var(&checkoutUserID, "user", 0, "ID of the user checking out")
	checkoutLaunchCmd.Flags().StringVar(&checkoutName, "name", "", "Prefill name for the widget")
	checkoutLaunchCmd.Flags().StringVar(&checkoutEmail, "email", "", "Prefill email for the widget")
	checkoutLaunchCmd.Flags().StringVar(&checkoutContact, "contact", "", "Prefill contact for the widget")

	checkoutCmd.AddCommand(checkoutLaunchCmd)

	rootCmd.AddCommand(checkoutCmd)
}
