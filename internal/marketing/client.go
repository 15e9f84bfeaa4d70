// Package marketing talks to the SendGrid Marketing Campaigns API: contact
// lists, contacts and the global unsubscribe group.
package marketing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"

	"github.com/ignite/consent-notifications/internal/domain"
	"github.com/ignite/consent-notifications/internal/pkg/httpretry"
	"github.com/ignite/consent-notifications/internal/pkg/logger"
)

const (
	listsPath        = "/v3/marketing/lists"
	contactsPath     = "/v3/marketing/contacts"
	globalUnsubsPath = "/v3/asm/suppressions/global"
)

// Config configures a SendGrid marketing client.
type Config struct {
	APIKey string
	// Host overrides https://api.sendgrid.com.
	Host       string
	Timeout    time.Duration
	MaxRetries int
}

// Client is a SendGrid marketing-list client. It is safe for concurrent use.
type Client struct {
	apiKey string
	host   string
	// retrying serves idempotent calls; single serves calls that must not
	// be repeated on an ambiguous failure.
	retrying *rest.Client
	single   *rest.Client
}

// NewClient builds a client with a cfg.Timeout HTTP client. Idempotent calls
// retry throttled and transient failures.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return NewClientWithHTTP(cfg, &http.Client{Timeout: cfg.Timeout})
}

// NewClientWithHTTP builds a client on a caller-supplied *http.Client. The
// retrying path wraps hc's transport.
func NewClientWithHTTP(cfg Config, hc *http.Client, opts ...httpretry.Option) *Client {
	retryHC := *hc
	retryHC.Transport = httpretry.NewTransport(hc.Transport, cfg.MaxRetries, opts...)
	return &Client{
		apiKey:   cfg.APIKey,
		host:     strings.TrimRight(cfg.Host, "/"),
		retrying: &rest.Client{HTTPClient: &retryHC},
		single:   &rest.Client{HTTPClient: hc},
	}
}

// CreateNewContactList creates a list named name and returns its id. The call
// is sent once: a repeated POST after a lost response would create a second
// list.
func (c *Client) CreateNewContactList(ctx context.Context, name string) (string, error) {
	var out createListResponse
	if err := c.do(ctx, c.single, rest.Post, listsPath, createListRequest{Name: name}, &out); err != nil {
		return "", fmt.Errorf("create contact list: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("create contact list: empty list id in response")
	}
	logger.Info("sendgrid list created", "list_id", out.ID, "name", name)
	return out.ID, nil
}

// AddContactsToList upserts contacts and adds them to every list in
// params.ListIDs. SendGrid processes the upsert asynchronously.
func (c *Client) AddContactsToList(ctx context.Context, params domain.ContactsToList) error {
	var out upsertContactsResponse
	if err := c.do(ctx, c.retrying, rest.Put, contactsPath, params, &out); err != nil {
		return fmt.Errorf("add contacts to list: %w", err)
	}
	logger.Debug("sendgrid contacts upsert queued", "job_id", out.JobID, "lists", strings.Join(params.ListIDs, ","))
	return nil
}

// AddToUnsubscribed puts emails on the account-wide unsubscribe group. Adding
// an address already in the group is a no-op, so the call is retried.
func (c *Client) AddToUnsubscribed(ctx context.Context, emails []string) error {
	if err := c.do(ctx, c.retrying, rest.Post, globalUnsubsPath, globalUnsubscribeRequest{RecipientEmails: emails}, nil); err != nil {
		return fmt.Errorf("add to global unsubscribes: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, rc *rest.Client, method rest.Method, path string, body, out any) error {
	req := sendgrid.GetRequest(c.apiKey, path, c.host)
	req.Method = method
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		req.Body = b
	}

	resp, err := rc.SendWithContext(ctx, req)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp)
	}
	if out != nil && resp.Body != "" {
		if err := json.Unmarshal([]byte(resp.Body), out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
