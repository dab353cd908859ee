package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// HostedWidget fronts the gateway's hosted payment form. Load confirms the
// form script is reachable before an order is created, so an outage is
// reported before any money-related call.
type HostedWidget struct {
	url    string
	client *http.Client
	logger *slog.Logger

	mu     sync.Mutex
	loaded bool
}

func NewHostedWidget(url string, timeout time.Duration, logger *slog.Logger) *HostedWidget {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HostedWidget{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Load checks the hosted form once; repeat calls after success are no-ops.
func (w *HostedWidget) Load(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.loaded {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url, nil)
	if err != nil {
		return err
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("widget script returned status %d", resp.StatusCode)
	}

	w.loaded = true
	w.logger.Info("payment widget loaded", "url", w.url)
	return nil
}

// Open hands the order to the hosted form. The form itself runs on the
// gateway's side; from here the flow waits for its callback.
func (w *HostedWidget) Open(ctx context.Context, params OpenParams) error {
	w.mu.Lock()
	loaded := w.loaded
	w.mu.Unlock()

	if !loaded {
		return errors.New("widget not loaded")
	}

	w.logger.Info("payment widget opened",
		"order_id", params.OrderID,
		"amount", params.Amount,
		"currency", params.Currency)
	return nil
}
