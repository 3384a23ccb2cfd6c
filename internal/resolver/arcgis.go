package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/username/refuse-schedule/internal/weekday"
	"github.com/username/refuse-schedule/pkg/random"
	"go.uber.org/zap"
)

const (
	DefaultGeocodeURL = "https://geocode.arcgis.com/arcgis/rest/services/World/GeocodeServer/findAddressCandidates"
	DefaultLayerURL   = "https://services.arcgis.com/eDETAHfuRDcwL2kQ/arcgis/rest/services/RefuseDay/FeatureServer/0"

	defaultTimeout = 30 * time.Second
	defaultRetries = 3
	dayField       = "Day"
	zoneField      = "OBJECTID"

	retryJitterPercent = 20
)

// Resolver maps a street address to its weekly collection day
type Resolver interface {
	LookupCollectionDay(ctx context.Context, address string) (*Lookup, error)
}

// Options configures the ArcGIS client. Empty fields use defaults.
type Options struct {
	GeocodeURL string
	LayerURL   string
	City       string
	State      string
	Timeout    time.Duration
}

// ArcGISClient resolves collection days through the ArcGIS geocoder and the RefuseDay feature layer
type ArcGISClient struct {
	geocodeURL string
	layerURL   string
	city       string
	state      string
	httpClient *http.Client
	retries    int
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewArcGISClient creates a new ArcGIS client
func NewArcGISClient(opts Options, logger *zap.Logger) *ArcGISClient {
	if opts.GeocodeURL == "" {
		opts.GeocodeURL = DefaultGeocodeURL
	}
	if opts.LayerURL == "" {
		opts.LayerURL = DefaultLayerURL
	}
	if opts.City == "" {
		opts.City = "Delaware"
	}
	if opts.State == "" {
		opts.State = "OH"
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}

	return &ArcGISClient{
		geocodeURL: opts.GeocodeURL,
		layerURL:   strings.TrimSuffix(opts.LayerURL, "/"),
		city:       opts.City,
		state:      opts.State,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		retries:    defaultRetries,
		retryDelay: time.Second,
		logger:     logger,
	}
}

// LookupCollectionDay implements Resolver
func (c *ArcGISClient) LookupCollectionDay(ctx context.Context, address string) (*Lookup, error) {
	c.logger.Debug("Looking up address", zap.String("address", address))

	var geo geocodeResponse
	err := c.doRequest(ctx, c.geocodeURL, url.Values{
		"f":         {"json"},
		"address":   {address},
		"city":      {c.city},
		"state":     {c.state},
		"outFields": {"*"},
	}, &geo)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode address: %w", err)
	}
	if geo.Error != nil {
		return nil, fmt.Errorf("failed to geocode address: %w", geo.Error)
	}
	if len(geo.Candidates) == 0 {
		return nil, &LookupError{Kind: AddressNotFound, Address: address}
	}

	best := geo.Candidates[0]
	c.logger.Debug("Geocoded address",
		zap.String("matched", best.Address),
		zap.Float64("x", best.Location.X),
		zap.Float64("y", best.Location.Y),
		zap.Float64("score", best.Score))

	var query queryResponse
	err = c.doRequest(ctx, c.layerURL+"/query", url.Values{
		"f":              {"json"},
		"geometry":       {fmt.Sprintf("%v,%v", best.Location.X, best.Location.Y)},
		"geometryType":   {"esriGeometryPoint"},
		"inSR":           {"4326"},
		"spatialRel":     {"esriSpatialRelIntersects"},
		"outFields":      {"*"},
		"returnGeometry": {"false"},
	}, &query)
	if err != nil {
		return nil, fmt.Errorf("failed to query refuse layer: %w", err)
	}
	if query.Error != nil {
		return nil, fmt.Errorf("failed to query refuse layer: %w", query.Error)
	}
	if len(query.Features) == 0 {
		return nil, &LookupError{Kind: ZoneNotFound, Address: address}
	}

	zone := query.Features[0]
	rawDay := strings.TrimSpace(zone.attrString(dayField))
	if rawDay == "" {
		return nil, &LookupError{Kind: CollectionDayUnset, Address: address}
	}

	day, err := weekday.Parse(rawDay)
	if err != nil {
		return nil, fmt.Errorf("unexpected collection day %q: %w", rawDay, err)
	}

	lookup := &Lookup{
		Address:        address,
		MatchedAddress: best.Address,
		CollectionDay:  day,
		Zone:           zone.attrString(zoneField),
		X:              best.Location.X,
		Y:              best.Location.Y,
	}

	c.logger.Info("Collection day resolved",
		zap.String("address", address),
		zap.String("collection_day", day.String()),
		zap.String("zone", lookup.Zone))

	return lookup, nil
}

// doRequest performs a GET with retries on transport errors and 5xx responses
func (c *ArcGISClient) doRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	fullURL := endpoint + "?" + params.Encode()

	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		retry, err := c.doRequestOnce(ctx, fullURL, result)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}

		c.logger.Warn("Request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", c.retries),
			zap.Error(err))

		if attempt < c.retries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(random.Backoff(c.retryDelay, attempt, retryJitterPercent)):
			}
		}
	}

	return fmt.Errorf("request failed after %d attempts: %w", c.retries, lastErr)
}

// doRequestOnce performs a single HTTP request; retry reports whether the failure is transient
func (c *ArcGISClient) doRequestOnce(ctx context.Context, fullURL string, result interface{}) (retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ctx.Err() == nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode >= 500, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return false, fmt.Errorf("failed to parse response: %w", err)
	}

	return false, nil
}
