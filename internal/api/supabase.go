package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"guild-tracker/internal/config"
	"guild-tracker/internal/constants"
	"guild-tracker/internal/domain"

	"github.com/valyala/fasthttp"
)

var ErrRemoteNotConfigured = errors.New("remote table is not configured")

// SupabaseClient talks to the PostgREST endpoint that holds the shared
// damage table.
type SupabaseClient struct {
	baseURL string
	key     string
	table   string
	client  *fasthttp.Client
}

// Row is the remote table's wire shape. Numeric columns decode leniently.
type Row struct {
	ID              FlexString    `json:"id"`
	PlayerName      string        `json:"player_name"`
	Guild           string        `json:"guild"`
	RecordType      string        `json:"record_type"`
	TotalDamage     domain.Damage `json:"total_damage"`
	TicketDamage    domain.Damage `json:"ticket_damage"`
	Timestamp       EpochMillis   `json:"timestamp"`
	ScreenshotURL   *string       `json:"screenshot_url"`
	DiscordID       *string       `json:"discord_id"`
	DiscordUsername *string       `json:"discord_username"`
	DiscordAvatar   *string       `json:"discord_avatar"`
}

// FlexString accepts a JSON string or number; bigint primary keys come back
// as numbers.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// EpochMillis is a capture time in Unix milliseconds. It accepts a JSON
// number, a numeric string or an RFC 3339 string; anything else decodes to 0.
type EpochMillis int64

func (e *EpochMillis) UnmarshalJSON(data []byte) error {
	*e = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
		raw = strings.TrimSpace(raw)
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			*e = EpochMillis(t.UnixMilli())
			return nil
		}
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*e = EpochMillis(v)
		return nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) && math.Abs(f) < math.MaxInt64 {
		*e = EpochMillis(int64(f))
	}
	return nil
}

func (e EpochMillis) Time() time.Time {
	return time.UnixMilli(int64(e)).UTC()
}

func NewSupabaseClient(cfg *config.Config) *SupabaseClient {
	return &SupabaseClient{
		baseURL: cfg.RemoteURL,
		key:     cfg.RemoteKey,
		table:   cfg.RemoteTable,
		client:  newFastClient(constants.ExternalAPITimeout),
	}
}

func (c *SupabaseClient) Configured() bool {
	return c.baseURL != "" && c.key != ""
}

func (c *SupabaseClient) endpoint(query url.Values) string {
	u := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, url.PathEscape(c.table))
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *SupabaseClient) newRequest(method, uri string) *fasthttp.Request {
	req := fasthttp.AcquireRequest()
	req.SetRequestURI(uri)
	req.Header.SetMethod(method)
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.SetContentType("application/json")
	return req
}

// InsertRow stores row and returns the representation the table kept.
func (c *SupabaseClient) InsertRow(ctx context.Context, row Row) (*Row, error) {
	if !c.Configured() {
		return nil, ErrRemoteNotConfigured
	}
	body, err := json.Marshal([]Row{row})
	if err != nil {
		return nil, err
	}

	req := c.newRequest(fasthttp.MethodPost, c.endpoint(nil))
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)
	req.Header.Set("Prefer", "return=representation")
	req.SetBody(body)

	if err := do(ctx, c.client, req, resp); err != nil {
		return nil, err
	}
	if err := checkStatus("supabase", resp, fasthttp.StatusOK, fasthttp.StatusCreated); err != nil {
		return nil, err
	}

	rows, err := decodeJSON[[]Row](resp)
	if err != nil {
		return nil, fmt.Errorf("failed to decode inserted row: %w", err)
	}
	if len(*rows) == 0 {
		return &row, nil
	}
	return &(*rows)[0], nil
}

func (c *SupabaseClient) ListRows(ctx context.Context) ([]Row, error) {
	if !c.Configured() {
		return nil, ErrRemoteNotConfigured
	}
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "timestamp.asc")

	req := c.newRequest(fasthttp.MethodGet, c.endpoint(q))
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	if err := do(ctx, c.client, req, resp); err != nil {
		return nil, err
	}
	if err := checkStatus("supabase", resp, fasthttp.StatusOK); err != nil {
		return nil, err
	}

	rows, err := decodeJSON[[]Row](resp)
	if err != nil {
		return nil, fmt.Errorf("failed to decode rows: %w", err)
	}
	return *rows, nil
}

// DeleteRow removes the row with id. Deleting a missing id succeeds.
func (c *SupabaseClient) DeleteRow(ctx context.Context, id string) error {
	q := url.Values{}
	q.Set("id", "eq."+id)
	return c.delete(ctx, q)
}

func (c *SupabaseClient) DeleteAllRows(ctx context.Context) error {
	q := url.Values{}
	// PostgREST refuses unfiltered deletes.
	q.Set("id", "not.is.null")
	return c.delete(ctx, q)
}

func (c *SupabaseClient) delete(ctx context.Context, q url.Values) error {
	if !c.Configured() {
		return ErrRemoteNotConfigured
	}
	req := c.newRequest(fasthttp.MethodDelete, c.endpoint(q))
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	if err := do(ctx, c.client, req, resp); err != nil {
		return err
	}
	return checkStatus("supabase", resp, fasthttp.StatusOK, fasthttp.StatusNoContent)
}
