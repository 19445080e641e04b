// Package openf1 is a read-only client for the public OpenF1 telemetry API.
package openf1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the public OpenF1 endpoint.
const DefaultBaseURL = "https://api.openf1.org/v1"

var (
	ErrUpstreamUnavailable = errors.New("openf1: upstream unavailable")
	ErrNoPositionData      = errors.New("openf1: no position data for session")
)

// Client issues GET requests against the OpenF1 API. It holds no state
// besides its configuration and is safe for concurrent use.
type Client struct {
	baseURL string
	hc      *http.Client
	l       *zap.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.hc = &http.Client{Timeout: d} }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.l = l }
}

func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		hc:      &http.Client{Timeout: 20 * time.Second},
		l:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.l = c.l.Named("openf1")
	return c
}

// Sessions lists all sessions of the given kind in a year.
func (c *Client) Sessions(ctx context.Context, year int, kind SessionKind) ([]Session, error) {
	var out []Session
	q := url.Values{"year": {strconv.Itoa(year)}, "session_type": {string(kind)}}
	if err := c.get(ctx, "/sessions", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SessionByMeeting returns the meeting's session of the given kind, or nil
// if the meeting has none.
func (c *Client) SessionByMeeting(ctx context.Context, meetingKey int, kind SessionKind) (*Session, error) {
	q := url.Values{"meeting_key": {strconv.Itoa(meetingKey)}, "session_type": {string(kind)}}
	return c.firstSession(ctx, q)
}

// Session returns the session metadata, or nil if the key is unknown.
func (c *Client) Session(ctx context.Context, sessionKey int) (*Session, error) {
	return c.firstSession(ctx, url.Values{"session_key": {strconv.Itoa(sessionKey)}})
}

func (c *Client) firstSession(ctx context.Context, q url.Values) (*Session, error) {
	var out []Session
	if err := c.get(ctx, "/sessions", q, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

// FinalPositions returns the classified order of a session. The upstream feed
// carries every position change; only the latest one per driver is kept.
func (c *Client) FinalPositions(ctx context.Context, sessionKey int) ([]Position, error) {
	var raw []Position
	if err := c.get(ctx, "/position", url.Values{"session_key": {strconv.Itoa(sessionKey)}}, &raw); err != nil {
		return nil, err
	}
	final := LatestPositions(raw)
	if len(final) == 0 {
		return nil, fmt.Errorf("%w: session %d", ErrNoPositionData, sessionKey)
	}
	return final, nil
}

// Laps returns every lap record of a session.
func (c *Client) Laps(ctx context.Context, sessionKey int) ([]Lap, error) {
	var out []Lap
	if err := c.get(ctx, "/laps", url.Values{"session_key": {strconv.Itoa(sessionKey)}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Drivers returns the driver roster of a session.
func (c *Client) Drivers(ctx context.Context, sessionKey int) ([]SessionDriver, error) {
	var out []SessionDriver
	if err := c.get(ctx, "/drivers", url.Values{"session_key": {strconv.Itoa(sessionKey)}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MatchSessionsToRace returns race sessions of the year that plausibly belong
// to the named race, closest date first. The result is meant for an operator
// to choose from.
func (c *Client) MatchSessionsToRace(ctx context.Context, raceName string, raceDate time.Time, year int) ([]Session, error) {
	sessions, err := c.Sessions(ctx, year, KindRace)
	if err != nil {
		return nil, err
	}
	return MatchSessions(sessions, raceName, raceDate), nil
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
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrUpstreamUnavailable, path, err)
	}
	defer resp.Body.Close()

	c.l.Debug("request",
		zap.String("path", path),
		zap.String("query", q.Encode()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: GET %s: status %d", ErrUpstreamUnavailable, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: GET %s: decode: %v", ErrUpstreamUnavailable, path, err)
	}
	return nil
}
