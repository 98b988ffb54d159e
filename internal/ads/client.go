package ads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/angelmondragon/hourbid/pkg/config"
	pkgerrors "github.com/angelmondragon/hourbid/pkg/errors"
	"github.com/angelmondragon/hourbid/pkg/logger"
)

// Scopes requested with the refresh token. The spreadsheet scope lets the
// Sheets client reuse the same token when no service account is configured.
var Scopes = []string{
	"https://www.googleapis.com/auth/adwords",
	"https://www.googleapis.com/auth/spreadsheets",
}

const maxErrorBody = 4 << 10

// Client talks to the Google Ads REST API for a single customer account.
type Client struct {
	http            *http.Client
	tokens          oauth2.TokenSource
	baseURL         string
	version         string
	customerID      string
	loginCustomerID string
	developerToken  string
}

// NewClient builds an OAuth2-authenticated Ads client from a refresh token.
func NewClient(ctx context.Context, cfg config.AdsConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.RefreshToken) == "" {
		return nil, errors.New("ads refresh token is required")
	}
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
		TokenType:    "Bearer",
	}
	tokens := oauthConfig.TokenSource(ctx, token)
	httpClient := oauth2.NewClient(ctx, tokens)
	httpClient.Timeout = cfg.Timeout

	client, err := newClient(httpClient, cfg)
	if err != nil {
		return nil, err
	}
	client.tokens = tokens

	if logg != nil {
		logg.Info(logg.WithField(ctx, "customer_id", client.customerID), "ads client initialized")
	}
	return client, nil
}

func newClient(httpClient *http.Client, cfg config.AdsConfig) (*Client, error) {
	if httpClient == nil {
		return nil, errors.New("http client required")
	}
	customerID := cfg.NormalizedCustomerID()
	if customerID == "" {
		return nil, errors.New("ads customer id is required")
	}
	if strings.TrimSpace(cfg.DeveloperToken) == "" {
		return nil, errors.New("ads developer token is required")
	}
	version := strings.TrimSpace(cfg.APIVersion)
	if version == "" {
		version = "v17"
	}
	return &Client{
		http:            httpClient,
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		version:         version,
		customerID:      customerID,
		loginCustomerID: cfg.NormalizedLoginCustomerID(),
		developerToken:  cfg.DeveloperToken,
	}, nil
}

// TokenSource exposes the refresh-token source for sibling Google clients.
func (c *Client) TokenSource() oauth2.TokenSource {
	return c.tokens
}

// APIError is a non-2xx response from the Ads API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) HTTPStatusCode() int {
	return e.StatusCode
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("ads api %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("ads api %d: %s", e.StatusCode, e.Message)
}

type searchRequest struct {
	Query     string `json:"query"`
	PageToken string `json:"pageToken,omitempty"`
}

type searchResponse struct {
	Results       []searchRow `json:"results"`
	NextPageToken string      `json:"nextPageToken"`
}

// search runs a GAQL query and follows pagination.
func (c *Client) search(ctx context.Context, query string) ([]searchRow, error) {
	var rows []searchRow
	pageToken := ""
	for {
		var resp searchResponse
		if err := c.post(ctx, "googleAds:search", searchRequest{Query: query, PageToken: pageToken}, &resp); err != nil {
			return nil, err
		}
		rows = append(rows, resp.Results...)
		if resp.NextPageToken == "" {
			return rows, nil
		}
		pageToken = resp.NextPageToken
	}
}

type mutateRequest struct {
	Operations []criterionOperation `json:"operations"`
}

type criterionOperation struct {
	Create *criterionPayload `json:"create,omitempty"`
	Remove string            `json:"remove,omitempty"`
}

type criterionPayload struct {
	Campaign    string            `json:"campaign"`
	AdSchedule  adSchedulePayload `json:"adSchedule"`
	BidModifier float64           `json:"bidModifier"`
}

type adSchedulePayload struct {
	DayOfWeek   string `json:"dayOfWeek"`
	StartHour   int    `json:"startHour"`
	StartMinute string `json:"startMinute"`
	EndHour     int    `json:"endHour"`
	EndMinute   string `json:"endMinute"`
}

type mutateResponse struct {
	Results []struct {
		ResourceName string `json:"resourceName"`
	} `json:"results"`
}

func (c *Client) mutateCriteria(ctx context.Context, ops []criterionOperation) (mutateResponse, error) {
	var resp mutateResponse
	err := c.post(ctx, "campaignCriteria:mutate", mutateRequest{Operations: ops}, &resp)
	return resp, err
}

func (c *Client) post(ctx context.Context, method string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode ads request")
	}
	endpoint := fmt.Sprintf("%s/%s/customers/%s/%s", c.baseURL, c.version, c.customerID, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build ads request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("developer-token", c.developerToken)
	if c.loginCustomerID != "" {
		req.Header.Set("login-customer-id", c.loginCustomerID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call ads api "+method)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return pkgerrors.WrapRemote(decodeAPIError(resp), "call ads api "+method)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode ads response "+method)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var envelope struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
		apiErr.Status = envelope.Error.Status
	}
	return apiErr
}

// TimeZone returns the account time zone that schedules are evaluated in.
func (c *Client) TimeZone(ctx context.Context) (*time.Location, error) {
	rows, err := c.search(ctx, "SELECT customer.time_zone FROM customer LIMIT 1")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].Customer == nil || rows[0].Customer.TimeZone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account time zone not reported")
	}
	loc, err := time.LoadLocation(rows[0].Customer.TimeZone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load account time zone")
	}
	return loc, nil
}

var _ Platform = (*Client)(nil)
