// Package verify re-checks locally flagged issues against the platform API,
// the remote source of truth for a site's publish state. Verification
// re-partitions the flagged set into confirmed issues, false positives
// (billing was justified; the CRM was stale), and API errors that need
// manual review.
package verify

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/agencyops/billaudit/pkg/errors"
)

const (
	// DefaultEndpoint is the platform API base URL.
	DefaultEndpoint = "https://api.duda.co"

	// defaultTimeout bounds a single API call.
	defaultTimeout = 15 * time.Second

	// userAgent identifies this tool to the platform API.
	userAgent = "billaudit/1.0"

	// historyLimit is the page size requested from the activities
	// endpoint; historyKeep caps the publish events retained from it.
	historyLimit = 50
	historyKeep  = 10
)

// Credentials hold the Basic Auth access data for the platform API,
// supplied out of band by the configuration layer.
type Credentials struct {
	Username string
	Password string
	Endpoint string
}

// Configured reports whether both username and password are set.
func (c Credentials) Configured() bool {
	return c.Username != "" && c.Password != ""
}

// Client talks to the platform site API.
type Client struct {
	creds      Credentials
	httpClient *http.Client
}

// NewClient creates a platform API client. An empty endpoint falls back to
// the default.
func NewClient(creds Credentials) *Client {
	if creds.Endpoint == "" {
		creds.Endpoint = DefaultEndpoint
	}
	return &Client{
		creds:      creds,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Configured reports whether the client has usable credentials.
func (c *Client) Configured() bool {
	return c != nil && c.creds.Configured()
}

// GetSiteStatus fetches the current publish state of a site.
func (c *Client) GetSiteStatus(ctx context.Context, siteID string) (*SiteStatus, error) {
	endpoint := fmt.Sprintf("%s/api/sites/multiscreen/%s", c.creds.Endpoint, url.PathEscape(siteID))

	var status SiteStatus
	if err := c.get(ctx, siteID, endpoint, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetPublishHistory fetches a site's recent activity history, filtered to
// publish and unpublish events, most recent first as delivered by the API.
func (c *Client) GetPublishHistory(ctx context.Context, siteID string) ([]Activity, error) {
	endpoint := fmt.Sprintf("%s/api/sites/multiscreen/%s/activities?limit=%d&offset=0",
		c.creds.Endpoint, url.PathEscape(siteID), historyLimit)

	var activities []Activity
	if err := c.get(ctx, siteID, endpoint, &activities); err != nil {
		return nil, err
	}

	var publishEvents []Activity
	for _, activity := range activities {
		if activity.IsPublishEvent() {
			publishEvents = append(publishEvents, activity)
			if len(publishEvents) == historyKeep {
				break
			}
		}
	}
	return publishEvents, nil
}

// TestConnection probes the API with a site-specific call, the simplest
// request that exercises authentication on enterprise accounts.
func (c *Client) TestConnection(ctx context.Context, testSiteID string) (*SiteStatus, error) {
	if !c.Configured() {
		return nil, errors.ErrCredentialsRequired
	}
	return c.GetSiteStatus(ctx, testSiteID)
}

// get performs an authenticated GET and decodes the JSON response body.
func (c *Client) get(ctx context.Context, siteID, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.WrapAPI(siteID, endpoint, 0, err)
	}
	req.SetBasicAuth(c.creds.Username, c.creds.Password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &errors.APIError{
			SiteID:   siteID,
			Endpoint: endpoint,
			Message:  requestFailure(err),
			Err:      err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		apiErr := errors.NewAPIError(siteID, endpoint, resp.StatusCode, resp.Status)
		apiErr.Message = apiErr.Interpret()
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WrapAPI(siteID, endpoint, 0, err)
	}
	return nil
}

// requestFailure distinguishes timeouts from connection failures so the
// error tally can name the cause.
func requestFailure(err error) string {
	var urlErr *url.Error
	if stderrors.As(err, &urlErr) && urlErr.Timeout() {
		return "API timeout"
	}
	return "connection failure"
}
