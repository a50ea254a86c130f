package order

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/MikeMC777/checkout-saga/internal/httpx"
	userpb "github.com/MikeMC777/checkout-saga/internal/userpb"
)

type ProductDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock_quantity"`
}

type walletDTO struct {
	UserID  int64 `json:"user_id"`
	Balance int64 `json:"balance"`
}

// Ext talks to the customer directory over gRPC and to the product and
// wallet services over HTTP. It implements CustomerDirectory, Inventory and
// WalletLedger.
type Ext struct {
	HTTP           *http.Client
	User           userpb.UserServiceClient
	ProductBaseURL string
	WalletBaseURL  string

	conn *grpc.ClientConn
}

func NewExt(userAddr, productBaseURL, walletBaseURL string, timeout time.Duration) (*Ext, error) {
	// Connection is lazy; the first RPC dials.
	conn, err := grpc.NewClient(userAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return &Ext{
		HTTP:           &http.Client{Timeout: timeout},
		User:           userpb.NewUserServiceClient(conn),
		ProductBaseURL: strings.TrimRight(productBaseURL, "/"),
		WalletBaseURL:  strings.TrimRight(walletBaseURL, "/"),
		conn:           conn,
	}, nil
}

func (e *Ext) Close() error {
	if e.conn == nil {
		return nil
	}
	return e.conn.Close()
}

func (e *Ext) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	out, err := e.User.GetCustomer(outgoing(ctx), &userpb.GetCustomerRequest{Id: id})
	if err != nil {
		return nil, classifyRPC("get customer", err)
	}
	c := out.GetCustomer()
	if c == nil {
		return nil, fmt.Errorf("get customer: empty response: %w", ErrRemoteUnavailable)
	}
	return &Customer{ID: c.Id, DiscountAvailed: c.DiscountAvailed}, nil
}

func (e *Ext) MarkDiscountAvailed(ctx context.Context, id int64) error {
	_, err := e.User.SetDiscountAvailed(outgoing(ctx), &userpb.SetDiscountAvailedRequest{Id: id, Availed: true})
	if err != nil {
		return classifyRPC("set discount availed", err)
	}
	return nil
}

func (e *Ext) FetchProduct(ctx context.Context, id int64) (*ProductDTO, error) {
	var p ProductDTO
	if err := e.do(ctx, http.MethodGet, fmt.Sprintf("%s/products/%d", e.ProductBaseURL, id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (e *Ext) DecrementStock(ctx context.Context, productID int64, qty int) error {
	return e.adjustStock(ctx, productID, "decrement", qty)
}

func (e *Ext) IncrementStock(ctx context.Context, productID int64, qty int) error {
	return e.adjustStock(ctx, productID, "increment", qty)
}

func (e *Ext) adjustStock(ctx context.Context, productID int64, action string, qty int) error {
	body := map[string]any{"action": action, "quantity": qty}
	return e.do(ctx, http.MethodPut, fmt.Sprintf("%s/products/%d/stock", e.ProductBaseURL, productID), body, nil)
}

func (e *Ext) Balance(ctx context.Context, userID int64) (int64, error) {
	var w walletDTO
	if err := e.do(ctx, http.MethodGet, fmt.Sprintf("%s/wallets/%d", e.WalletBaseURL, userID), nil, &w); err != nil {
		return 0, err
	}
	return w.Balance, nil
}

func (e *Ext) Debit(ctx context.Context, userID, amount int64) error {
	return e.adjustWallet(ctx, userID, "debit", amount)
}

func (e *Ext) Credit(ctx context.Context, userID, amount int64) error {
	return e.adjustWallet(ctx, userID, "credit", amount)
}

func (e *Ext) adjustWallet(ctx context.Context, userID int64, action string, amount int64) error {
	body := map[string]any{"action": action, "amount": amount}
	return e.do(ctx, http.MethodPut, fmt.Sprintf("%s/wallets/%d", e.WalletBaseURL, userID), body, nil)
}

// do sends a JSON request and decodes a 2xx response into out. Non-2xx
// statuses and transport failures are mapped to the ErrRemote* errors.
func (e *Ext) do(ctx context.Context, method, url string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if rid := httpx.RequestIDFrom(ctx); rid != "" {
		req.Header.Set(httpx.HeaderRequestID, rid)
	}

	res, err := e.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %v: %w", method, url, err, ErrRemoteUnavailable)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("%s %s: decode: %v: %w", method, url, err, ErrRemoteUnavailable)
		}
		return nil
	case res.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %s: %w", method, url, remoteMessage(res), ErrRemoteNotFound)
	case res.StatusCode == http.StatusBadRequest,
		res.StatusCode == http.StatusConflict,
		res.StatusCode == http.StatusUnprocessableEntity:
		return fmt.Errorf("%s %s: %s: %w", method, url, remoteMessage(res), ErrRemoteRejected)
	default:
		return fmt.Errorf("%s %s: %s: %w", method, url, res.Status, ErrRemoteUnavailable)
	}
}

func remoteMessage(res *http.Response) string {
	var he httpx.HTTPError
	if err := json.NewDecoder(io.LimitReader(res.Body, 4096)).Decode(&he); err != nil || he.Error == "" {
		return res.Status
	}
	return he.Error
}

func outgoing(ctx context.Context) context.Context {
	if rid := httpx.RequestIDFrom(ctx); rid != "" {
		return metadata.AppendToOutgoingContext(ctx, strings.ToLower(httpx.HeaderRequestID), rid)
	}
	return ctx
}

func classifyRPC(op string, err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%s: %v: %w", op, err, ErrRemoteNotFound)
	case codes.InvalidArgument, codes.AlreadyExists, codes.FailedPrecondition:
		return fmt.Errorf("%s: %v: %w", op, err, ErrRemoteRejected)
	default:
		return fmt.Errorf("%s: %v: %w", op, err, ErrRemoteUnavailable)
	}
}
