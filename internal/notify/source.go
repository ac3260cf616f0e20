package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	BuyerOrdersPath  = "/api/v1/orders"
	SellerOrdersPath = "/api/v1/seller/orders"
	GuestHeader      = "X-Guest-ID"
)

type Source interface {
	Fetch(ctx context.Context) ([]*domain.Order, error)
}

// FuncSource adapts an in-process lookup, e.g. ledger.ListOrdersForBuyer.
type FuncSource func(ctx context.Context) ([]*domain.Order, error)

func (f FuncSource) Fetch(ctx context.Context) ([]*domain.Order, error) {
	return f(ctx)
}

// HTTPSource polls an order listing endpoint of the REST API.
// Either Token (bearer) or GuestID identifies the caller.
type HTTPSource struct {
	BaseURL string
	Path    string
	Token   string
	GuestID string
	Client  *http.Client
}

func NewHTTPSource(baseURL, path string) *HTTPSource {
	return &HTTPSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Path:    path,
		Client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]*domain.Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+s.Path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	} else if s.GuestID != "" {
		req.Header.Set(GuestHeader, s.GuestID)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch orders: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var orders []*domain.Order
	if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}
