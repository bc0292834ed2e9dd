// Package calendar talks to the external scheduling provider: listing open
// consultation slots and creating bookings. The controller treats both
// operations as fallible network calls with defined fallbacks; nothing here
// dead-ends a caller.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/MikeSquared-Agency/frontdesk/internal/slots"
)

// Contact is the caller information attached to a booking.
type Contact struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Reason    string `json:"reason,omitempty"`
}

type Client struct {
	baseURL   string
	apiKey    string
	eventType string
	client    *http.Client
	logger    *slog.Logger
	loc       *time.Location
}

func NewClient(baseURL, apiKey, eventType string, loc *time.Location, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		eventType: eventType,
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
		loc:       loc,
	}
}

type availabilityResponse struct {
	Slots []struct {
		Start string `json:"start"`
	} `json:"slots"`
}

// ListAvailability returns open slots in the window, earliest first. An
// empty window at the provider is an empty slice, not an error.
func (c *Client) ListAvailability(ctx context.Context, from, to time.Time) ([]slots.Slot, error) {
	q := url.Values{}
	q.Set("eventType", c.eventType)
	q.Set("from", from.UTC().Format(time.RFC3339))
	q.Set("to", to.UTC().Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/availability?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("availability call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("availability error %d: %s", resp.StatusCode, string(body))
	}

	var parsed availabilityResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal availability: %w", err)
	}

	out := make([]slots.Slot, 0, len(parsed.Slots))
	for _, s := range parsed.Slots {
		start, err := time.Parse(time.RFC3339, s.Start)
		if err != nil {
			c.logger.Warn("skipping unparseable slot", "start", s.Start, "error", err)
			continue
		}
		out = append(out, slots.Slot{Start: start.In(c.loc)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

type bookingRequest struct {
	EventType string  `json:"event_type"`
	Start     string  `json:"start"`
	End       string  `json:"end"`
	Contact   Contact `json:"contact"`
}

type bookingResponse struct {
	ID  string `json:"id"`
	UID string `json:"uid"`
}

// CreateBooking books the slot for the contact and returns the provider's
// booking reference.
func (c *Client) CreateBooking(ctx context.Context, slot slots.Slot, contact Contact) (string, error) {
	payload, err := json.Marshal(bookingRequest{
		EventType: c.eventType,
		Start:     slot.Start.UTC().Format(time.RFC3339),
		End:       slot.End().UTC().Format(time.RFC3339),
		Contact:   contact,
	})
	if err != nil {
		return "", fmt.Errorf("marshal booking: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/bookings", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("booking call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("booking error %d: %s", resp.StatusCode, string(body))
	}

	var parsed bookingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal booking: %w", err)
	}
	if parsed.ID != "" {
		return parsed.ID, nil
	}
	return parsed.UID, nil
}
