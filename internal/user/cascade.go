package user

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/MikeMC777/checkout-saga/internal/httpx"
)

// Cascade issues the cross-service deletes that follow customer removal.
// Every call is best-effort; callers log the error and carry on.
type Cascade struct {
	HTTP          *http.Client
	WalletBaseURL string
	OrderBaseURL  string
}

func NewCascade(walletBaseURL, orderBaseURL string, timeout time.Duration) *Cascade {
	return &Cascade{
		HTTP:          &http.Client{Timeout: timeout},
		WalletBaseURL: walletBaseURL,
		OrderBaseURL:  orderBaseURL,
	}
}

func (c *Cascade) DeleteWallet(ctx context.Context, userID int64) error {
	return c.delete(ctx, fmt.Sprintf("%s/wallets/%d", c.WalletBaseURL, userID))
}

func (c *Cascade) DeleteAllWallets(ctx context.Context) error {
	return c.delete(ctx, c.WalletBaseURL+"/wallets")
}

// CancelAllOrders asks the marketplace to cancel every placed order and refund it.
func (c *Cascade) CancelAllOrders(ctx context.Context) error {
	return c.delete(ctx, c.OrderBaseURL+"/marketplace")
}

func (c *Cascade) delete(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	if rid := httpx.RequestIDFrom(ctx); rid != "" {
		req.Header.Set(httpx.HeaderRequestID, rid)
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("DELETE %s: %s", url, res.Status)
	}
	return nil
}
