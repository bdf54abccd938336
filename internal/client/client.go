// Package client provides a typed client for the conversation API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/raphaelgruber/chatexport/internal/metrics"
	"github.com/raphaelgruber/chatexport/internal/models"
)

// DefaultBaseURL is the API root used when none is configured.
const DefaultBaseURL = "https://claude.ai/api"

// Client issues the read operations needed for exports.
// It never retries or caches; failures are returned unchanged.
type Client struct {
	baseURL   string
	transport Transport
	headers   map[string]string
	metrics   *metrics.Collector
}

// Option configures a Client.
type Option func(*Client)

// WithSessionKey forwards the host page's session cookie on every request.
func WithSessionKey(key string) Option {
	return func(c *Client) {
		if key != "" {
			c.headers["Cookie"] = "sessionKey=" + key
		}
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(name, value string) Option {
	return func(c *Client) {
		c.headers[name] = value
	}
}

// WithMetrics records the timing of every API call.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a client for baseURL using transport.
// If baseURL is empty, DefaultBaseURL is used.
func New(baseURL string, transport Transport, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: transport,
		headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs a GET against path and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, op, path string, out any) error {
	req := &Request{
		Method:  "GET",
		URL:     c.baseURL + path,
		Headers: c.headers,
	}

	return c.metrics.Time(op, func() error {
		resp, err := c.transport.Do(ctx, req)
		if err != nil {
			return &TransportError{Method: req.Method, URL: req.URL, Err: err}
		}
		if resp.Status < 200 || resp.Status >= 300 {
			return &TransportError{Method: req.Method, URL: req.URL, Status: resp.Status}
		}
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return fmt.Errorf("decode %s response: %w", op, err)
		}
		return nil
	})
}

// ListOrganizations returns the organizations of the signed-in user.
func (c *Client) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	var orgs []models.Organization
	if err := c.get(ctx, metrics.OpListOrganizations, "/organizations", &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// OrganizationID resolves the organization used for exports: the first listed one.
func (c *Client) OrganizationID(ctx context.Context) (string, error) {
	orgs, err := c.ListOrganizations(ctx)
	if err != nil {
		return "", err
	}
	if len(orgs) == 0 {
		return "", ErrNoOrganization
	}
	return orgs[0].UUID, nil
}

// ListConversations returns every conversation of the organization.
func (c *Client) ListConversations(ctx context.Context, orgID string) ([]models.ConversationSummary, error) {
	path := fmt.Sprintf("/organizations/%s/chat_conversations", url.PathEscape(orgID))

	var convs []models.ConversationSummary
	if err := c.get(ctx, metrics.OpListConversations, path, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// GetConversation fetches one conversation with its messages.
func (c *Client) GetConversation(ctx context.Context, orgID, convID string) (*models.Conversation, error) {
	path := fmt.Sprintf("/organizations/%s/chat_conversations/%s",
		url.PathEscape(orgID), url.PathEscape(convID))

	var conv models.Conversation
	if err := c.get(ctx, metrics.OpGetConversation, path, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}
