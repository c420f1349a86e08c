package calendarsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	errorBodyLimit = 500
	googleDateFmt  = "20060102T150405Z"
)

// EventPayload is the provider-neutral event body built from an appointment.
type EventPayload struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Timezone    string
}

// HTTPError carries the status and truncated body of a failed provider call.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("google calendar: http %d: %s", e.StatusCode, e.Body)
}

// GoogleEvent is the subset of Google's event resource the engine records.
type GoogleEvent struct {
	ID       string `json:"id"`
	HTMLLink string `json:"htmlLink"`
}

// GoogleClient is a thin wrapper over Google's calendar REST API. The base
// URL is injectable so tests can point it at a local server.
type GoogleClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGoogleClient constructs a client against the given API base URL.
func NewGoogleClient(baseURL string, httpClient *http.Client) *GoogleClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &GoogleClient{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// CreateEvent inserts a new event on the user's primary calendar.
func (c *GoogleClient) CreateEvent(ctx context.Context, accessToken string, payload EventPayload) (GoogleEvent, error) {
	endpoint := c.baseURL + "/calendars/primary/events"
	return c.send(ctx, http.MethodPost, endpoint, accessToken, payload)
}

// PatchEvent updates an existing event in place.
func (c *GoogleClient) PatchEvent(ctx context.Context, accessToken, eventID string, payload EventPayload) (GoogleEvent, error) {
	endpoint := c.baseURL + "/calendars/primary/events/" + url.PathEscape(eventID)
	return c.send(ctx, http.MethodPatch, endpoint, accessToken, payload)
}

// DeleteEvent removes an event from the user's primary calendar.
func (c *GoogleClient) DeleteEvent(ctx context.Context, accessToken, eventID string) error {
	endpoint := c.baseURL + "/calendars/primary/events/" + url.PathEscape(eventID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}
	return nil
}

func (c *GoogleClient) send(ctx context.Context, method, endpoint, accessToken string, payload EventPayload) (GoogleEvent, error) {
	body, err := json.Marshal(map[string]any{
		"summary":     payload.Summary,
		"description": payload.Description,
		"location":    payload.Location,
		"start": map[string]string{
			"dateTime": payload.Start.UTC().Format(time.RFC3339),
			"timeZone": payload.Timezone,
		},
		"end": map[string]string{
			"dateTime": payload.End.UTC().Format(time.RFC3339),
			"timeZone": payload.Timezone,
		},
	})
	if err != nil {
		return GoogleEvent{}, err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return GoogleEvent{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return GoogleEvent{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return GoogleEvent{}, &HTTPError{StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	var event GoogleEvent
	if err := json.NewDecoder(resp.Body).Decode(&event); err != nil {
		return GoogleEvent{}, err
	}
	return event, nil
}

func readErrorBody(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, errorBodyLimit))
	return strings.TrimSpace(string(raw))
}

// TemplateURL builds a browser-openable "add to Google Calendar" link. It is
// used as a fallback link (and placeholder event id) when the API is
// unreachable or the connection has no usable access token.
func TemplateURL(payload EventPayload) string {
	values := url.Values{}
	values.Set("action", "TEMPLATE")
	values.Set("text", payload.Summary)
	values.Set("dates", payload.Start.UTC().Format(googleDateFmt)+"/"+payload.End.UTC().Format(googleDateFmt))
	if payload.Description != "" {
		values.Set("details", payload.Description)
	}
	if payload.Location != "" {
		values.Set("location", payload.Location)
	}
	return "https://calendar.google.com/calendar/render?" + values.Encode()
}

// isRemoteEventID reports whether a stored event id refers to a real
// provider-side event, as opposed to a local placeholder, template URL, or
// ICS data URL recorded by a degraded sync.
func isRemoteEventID(eventID string) bool {
	if eventID == "" {
		return false
	}
	for _, prefix := range []string{"http://", "https://", "data:", "local:"} {
		if strings.HasPrefix(eventID, prefix) {
			return false
		}
	}
	return true
}
