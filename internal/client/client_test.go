package client_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/raphaelgruber/chatexport/internal/client"
	"github.com/raphaelgruber/chatexport/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport answers from a path -> response table and records calls.
type fakeTransport struct {
	responses map[string]*client.Response
	err       error
	calls     []*client.Request
}

func (f *fakeTransport) Do(_ context.Context, req *client.Request) (*client.Response, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	if resp, ok := f.responses[req.URL]; ok {
		return resp, nil
	}
	return &client.Response{Status: http.StatusNotFound}, nil
}

func TestListOrganizations(t *testing.T) {
	ft := &fakeTransport{responses: map[string]*client.Response{
		"https://example.test/api/organizations": {Status: 200, Body: []byte(`[{"uuid":"org-1"},{"uuid":"org-2"}]`)},
	}}
	c := client.New("https://example.test/api/", ft, client.WithSessionKey("sk-123"))

	orgs, err := c.ListOrganizations(context.Background())
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	assert.Equal(t, "org-1", orgs[0].UUID)

	require.Len(t, ft.calls, 1)
	assert.Equal(t, "GET", ft.calls[0].Method)
	assert.Equal(t, "sessionKey=sk-123", ft.calls[0].Headers["Cookie"])
	assert.Equal(t, "application/json", ft.calls[0].Headers["Content-Type"])
}

func TestOrganizationIDUsesFirstEntry(t *testing.T) {
	ft := &fakeTransport{responses: map[string]*client.Response{
		client.DefaultBaseURL + "/organizations": {Status: 200, Body: []byte(`[{"uuid":"first"},{"uuid":"second"}]`)},
	}}
	c := client.New("", ft)

	id, err := c.OrganizationID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", id)
}

func TestOrganizationIDEmptyList(t *testing.T) {
	ft := &fakeTransport{responses: map[string]*client.Response{
		client.DefaultBaseURL + "/organizations": {Status: 200, Body: []byte(`[]`)},
	}}
	c := client.New("", ft)

	_, err := c.OrganizationID(context.Background())
	assert.ErrorIs(t, err, client.ErrNoOrganization)
}

func TestListConversationsKeepsLooseTimestamps(t *testing.T) {
	ft := &fakeTransport{responses: map[string]*client.Response{
		client.DefaultBaseURL + "/organizations/o/chat_conversations": {Status: 200, Body: []byte(
			`[{"uuid":"a","name":"A","created_at":"2024-01-02 03:04:05","updated_at":""},{"uuid":"b"}]`,
		)},
	}}
	c := client.New("", ft)

	convs, err := c.ListConversations(context.Background(), "o")
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, "a", convs[0].UUID)
	assert.Equal(t, "2024-01-02 03:04:05", convs[0].CreatedAt)
	assert.Equal(t, "b", convs[1].UUID)
}

func TestNon2xxIsTransportError(t *testing.T) {
	ft := &fakeTransport{responses: map[string]*client.Response{
		"https://x.test/organizations/o/chat_conversations": {Status: 403, Body: []byte(`forbidden`)},
	}}
	c := client.New("https://x.test", ft)

	_, err := c.ListConversations(context.Background(), "o")
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrTransport)

	var te *client.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 403, te.Status)
	assert.Contains(t, te.Error(), "status 403")
}

func TestNetworkFailureIsTransportError(t *testing.T) {
	cause := errors.New("connection refused")
	c := client.New("https://x.test", &fakeTransport{err: cause})

	_, err := c.GetConversation(context.Background(), "o", "c")
	assert.ErrorIs(t, err, client.ErrTransport)
	assert.ErrorIs(t, err, cause)
}

func TestGetConversationEscapesIDs(t *testing.T) {
	ft := &fakeTransport{responses: map[string]*client.Response{
		"https://x.test/organizations/o%2F1/chat_conversations/c%201": {
			Status: 200,
			Body:   []byte(`{"uuid":"c 1","name":"Test","chat_messages":[{"sender":"human","text":"hi"}]}`),
		},
	}}
	c := client.New("https://x.test", ft)

	conv, err := c.GetConversation(context.Background(), "o/1", "c 1")
	require.NoError(t, err)
	assert.Equal(t, "Test", conv.Name)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "hi", conv.Messages[0].Text)
	assert.NotEmpty(t, conv.Raw())
}

func TestMalformedBodyIsNotTransportError(t *testing.T) {
	ft := &fakeTransport{responses: map[string]*client.Response{
		"https://x.test/organizations": {Status: 200, Body: []byte(`{not json`)},
	}}
	c := client.New("https://x.test", ft)

	_, err := c.ListOrganizations(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, client.ErrTransport)
}

func TestMetricsRecorded(t *testing.T) {
	m := metrics.NewCollector()
	ft := &fakeTransport{responses: map[string]*client.Response{
		"https://x.test/organizations": {Status: 500},
	}}
	c := client.New("https://x.test", ft, client.WithMetrics(m))

	_, _ = c.ListOrganizations(context.Background())

	snap := m.Get(metrics.OpListOrganizations)
	require.NotNil(t, snap)
	assert.Equal(t, int64(1), snap.Count)
	assert.Equal(t, int64(1), snap.Failures)
}

func TestHTTPTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sessionKey=abc", r.Header.Get("Cookie"))
		switch r.URL.Path {
		case "/api/organizations":
			w.Write([]byte(`[{"uuid":"org-1"}]`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	c := client.New(srv.URL+"/api", client.NewHTTPTransport(5*time.Second), client.WithSessionKey("abc"))

	id, err := c.OrganizationID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "org-1", id)

	_, err = c.ListConversations(context.Background(), id)
	var te *client.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusUnauthorized, te.Status)
}

func TestLoggingTransport(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ft := &fakeTransport{responses: map[string]*client.Response{
		"https://x.test/organizations": {Status: 502, Body: bytes.Repeat([]byte("x"), 500)},
	}}
	c := client.New("https://x.test", client.WithLogging(ft, logger))

	_, err := c.ListOrganizations(context.Background())
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "request rejected")
	assert.Contains(t, out, "status=502")
	assert.Contains(t, out, "...")
}
