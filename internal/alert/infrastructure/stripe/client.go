package stripe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/paymentops/stripe-alerts/internal/alert/domain"
)

const DefaultBaseURL = "https://api.stripe.com"

// Client is a thin REST client for the Stripe endpoints this service needs.
type Client struct {
	log     *slog.Logger
	http    *http.Client
	baseURL string
	key     string
}

type Option func(*Client)

// WithBaseURL points the client at a different API host, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(log *slog.Logger, key string, opts ...Option) *Client {
	c := &Client{
		log:     log,
		http:    &http.Client{},
		baseURL: DefaultBaseURL,
		key:     key,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListCharges(ctx context.Context, createdAfter time.Time, limit int) ([]domain.Charge, error) {
	q := url.Values{}
	q.Set("created[gte]", strconv.FormatInt(createdAfter.Unix(), 10))
	q.Set("limit", strconv.Itoa(limit))

	var page struct {
		Data []domain.Charge `json:"data"`
	}
	if err := c.get(ctx, "/v1/charges", q, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

func (c *Client) GetAccount(ctx context.Context) (domain.Account, error) {
	var acct domain.Account
	if err := c.get(ctx, "/v1/account", nil, &acct); err != nil {
		return domain.Account{}, err
	}
	return acct, nil
}

func (c *Client) CreateWebhookEndpoint(ctx context.Context, endpointURL string, events []string) (domain.WebhookEndpoint, error) {
	form := url.Values{}
	form.Set("url", endpointURL)
	for _, ev := range events {
		form.Add("enabled_events[]", ev)
	}

	var ep domain.WebhookEndpoint
	if err := c.postForm(ctx, "/v1/webhook_endpoints", form, &ep); err != nil {
		return domain.WebhookEndpoint{}, err
	}
	return ep, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.key)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return c.apiError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) apiError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var apiErr struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		c.log.Error("stripe api error", "status", resp.StatusCode, "type", apiErr.Error.Type, "message", apiErr.Error.Message)
		return fmt.Errorf("stripe: %s", apiErr.Error.Message)
	}
	return fmt.Errorf("stripe: unexpected status %d", resp.StatusCode)
}
