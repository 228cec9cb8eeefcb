package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrNoRoute is returned when no road route exists between the two points
// or the points carry no coordinates.
var ErrNoRoute = errors.New("no route between points")

// OSRMClient queries an OSRM instance for driving distances. The public
// router.project-osrm.org works for development; production should point at
// a self-hosted instance.
type OSRMClient struct {
	BaseURL string
	Client  *http.Client
}

// NewOSRMClient constructs a client with a bounded request timeout.
func NewOSRMClient(baseURL string, timeout time.Duration) *OSRMClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &OSRMClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// Distance implements Resolver. OSRM takes lng,lat pairs and returns route
// distance in metres.
func (c *OSRMClient) Distance(ctx context.Context, origin, dest Point) (float64, error) {
	if origin.Zero() || dest.Zero() {
		return 0, ErrNoRoute
	}
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		c.BaseURL, origin.Lng, origin.Lat, dest.Lng, dest.Lat)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("osrm status %d", resp.StatusCode)
	}
	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return 0, fmt.Errorf("%w: osrm code %q", ErrNoRoute, body.Code)
	}
	return body.Routes[0].Distance / 1000, nil
}

// FallbackResolver tries a primary resolver and falls back to a secondary
// when the primary fails. Used to keep quoting available when OSRM is down.
type FallbackResolver struct {
	Primary   Resolver
	Secondary Resolver
}

// Distance implements Resolver.
func (f FallbackResolver) Distance(ctx context.Context, origin, dest Point) (float64, error) {
	km, err := f.Primary.Distance(ctx, origin, dest)
	if err == nil {
		return km, nil
	}
	if f.Secondary == nil {
		return 0, err
	}
	return f.Secondary.Distance(ctx, origin, dest)
}
