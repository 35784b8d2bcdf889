// Package rest implements the gateway.Gateway contract against the
// trip-planning server's JSON API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/voyago/tripsync/internal/credentials"
	"github.com/voyago/tripsync/internal/gateway"
)

// Ensure Client implements gateway.Gateway
var _ gateway.Gateway = (*Client)(nil)

const (
	// metadataTimeout bounds entity create/list calls.
	metadataTimeout = 5 * time.Second

	// documentTimeout bounds document calls, which the server may back
	// with slower blob storage.
	documentTimeout = 30 * time.Second
)

// Client talks to the remote API over HTTP/JSON with bearer authentication.
type Client struct {
	baseURL string
	creds   credentials.Provider
	meta    *http.Client
	docs    *http.Client
}

// New creates a REST gateway client for the given base URL
// (e.g. "https://api.example.com").
func New(baseURL string, creds credentials.Provider) *Client {
	return &Client{
		baseURL: baseURL,
		creds:   creds,
		meta:    &http.Client{Timeout: metadataTimeout},
		docs:    &http.Client{Timeout: documentTimeout},
	}
}

// createResponse is the server's reply to any create call. Only the
// assigned id matters to the engine.
type createResponse struct {
	ID string `json:"id"`
}

// doCreate POSTs payload and returns the assigned server id as a value
// result; transport and HTTP failures become OK=false, never panics or
// errors, so push phases can continue with the next record.
func (c *Client) doCreate(ctx context.Context, httpc *http.Client, path string, payload any) gateway.CreateResult {
	body, err := json.Marshal(payload)
	if err != nil {
		return gateway.CreateResult{Status: gateway.Fail(fmt.Sprintf("encode request: %v", err))}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return gateway.CreateResult{Status: gateway.Fail(fmt.Sprintf("build request: %v", err))}
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.authorize(ctx, req); err != nil {
		return gateway.CreateResult{Status: gateway.Fail(err.Error())}
	}

	resp, err := httpc.Do(req)
	if err != nil {
		return gateway.CreateResult{Status: gateway.Fail(fmt.Sprintf("request failed: %v", err))}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return gateway.CreateResult{Status: gateway.Fail(fmt.Sprintf("server rejected create: %s: %s", resp.Status, msg))}
	}

	var cr createResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return gateway.CreateResult{Status: gateway.Fail(fmt.Sprintf("decode response: %v", err))}
	}
	if cr.ID == "" {
		return gateway.CreateResult{Status: gateway.Fail("server returned no id")}
	}
	return gateway.CreateResult{Status: gateway.Status{OK: true}, ServerID: cr.ID}
}

// doList GETs a collection endpoint and decodes it into out (a pointer to
// a slice of wire records).
func (c *Client) doList(ctx context.Context, path string, out any) gateway.Status {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return gateway.Fail(fmt.Sprintf("build request: %v", err))
	}
	if err := c.authorize(ctx, req); err != nil {
		return gateway.Fail(err.Error())
	}

	resp, err := c.meta.Do(req)
	if err != nil {
		return gateway.Fail(fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return gateway.Fail(fmt.Sprintf("server rejected list: %s: %s", resp.Status, msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return gateway.Fail(fmt.Sprintf("decode response: %v", err))
	}
	return gateway.Status{OK: true}
}

func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	token, err := c.creds.Token(ctx)
	if err != nil {
		return fmt.Errorf("no credential: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func tripPath(tripServerID, collection string) string {
	return "/api/v1/trips/" + url.PathEscape(tripServerID) + "/" + collection
}

// CreateTrip pushes a new trip.
func (c *Client) CreateTrip(ctx context.Context, t gateway.Trip) gateway.CreateResult {
	return c.doCreate(ctx, c.meta, "/api/v1/trips", t)
}

// ListTrips returns all trips visible to the credential.
func (c *Client) ListTrips(ctx context.Context) gateway.TripsResult {
	var out gateway.TripsResult
	out.Status = c.doList(ctx, "/api/v1/trips", &out.Trips)
	return out
}

// CreateParticipant pushes a new participant under its trip.
func (c *Client) CreateParticipant(ctx context.Context, p gateway.Participant) gateway.CreateResult {
	return c.doCreate(ctx, c.meta, tripPath(p.TripID, "participants"), p)
}

// ListParticipants returns the participants of a trip.
func (c *Client) ListParticipants(ctx context.Context, tripServerID string) gateway.ParticipantsResult {
	var out gateway.ParticipantsResult
	out.Status = c.doList(ctx, tripPath(tripServerID, "participants"), &out.Participants)
	return out
}

// CreateItineraryItem pushes a new itinerary item under its trip.
func (c *Client) CreateItineraryItem(ctx context.Context, it gateway.ItineraryItem) gateway.CreateResult {
	return c.doCreate(ctx, c.meta, tripPath(it.TripID, "itinerary"), it)
}

// ListItineraryItems returns the itinerary of a trip.
func (c *Client) ListItineraryItems(ctx context.Context, tripServerID string) gateway.ItineraryResult {
	var out gateway.ItineraryResult
	out.Status = c.doList(ctx, tripPath(tripServerID, "itinerary"), &out.Items)
	return out
}

// CreateMessage pushes a new chat message under its trip.
func (c *Client) CreateMessage(ctx context.Context, m gateway.Message) gateway.CreateResult {
	return c.doCreate(ctx, c.meta, tripPath(m.TripID, "messages"), m)
}

// ListMessages returns the messages of a trip.
func (c *Client) ListMessages(ctx context.Context, tripServerID string) gateway.MessagesResult {
	var out gateway.MessagesResult
	out.Status = c.doList(ctx, tripPath(tripServerID, "messages"), &out.Messages)
	return out
}

// CreateExpense pushes a new expense under its trip.
func (c *Client) CreateExpense(ctx context.Context, e gateway.Expense) gateway.CreateResult {
	return c.doCreate(ctx, c.meta, tripPath(e.TripID, "expenses"), e)
}

// ListExpenses returns the expenses of a trip.
func (c *Client) ListExpenses(ctx context.Context, tripServerID string) gateway.ExpensesResult {
	var out gateway.ExpensesResult
	out.Status = c.doList(ctx, tripPath(tripServerID, "expenses"), &out.Expenses)
	return out
}

// CreateExpenseSplit pushes a split under its expense.
func (c *Client) CreateExpenseSplit(ctx context.Context, s gateway.ExpenseSplit) gateway.CreateResult {
	return c.doCreate(ctx, c.meta, "/api/v1/expenses/"+url.PathEscape(s.ExpenseID)+"/splits", s)
}

// ListExpenseSplits returns the splits of an expense.
func (c *Client) ListExpenseSplits(ctx context.Context, expenseServerID string) gateway.SplitsResult {
	var out gateway.SplitsResult
	out.Status = c.doList(ctx, "/api/v1/expenses/"+url.PathEscape(expenseServerID)+"/splits", &out.Splits)
	return out
}

// CreateDocument pushes document metadata under its trip. Document calls
// use the long timeout because the server may touch blob storage.
func (c *Client) CreateDocument(ctx context.Context, d gateway.Document) gateway.CreateResult {
	return c.doCreate(ctx, c.docs, tripPath(d.TripID, "documents"), d)
}

// ListDocuments returns the documents of a trip.
func (c *Client) ListDocuments(ctx context.Context, tripServerID string) gateway.DocumentsResult {
	var out gateway.DocumentsResult
	out.Status = c.doList(ctx, tripPath(tripServerID, "documents"), &out.Documents)
	return out
}
