// Package graphhopper fetches driving paths from the GraphHopper Routing API.
package graphhopper

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	routemapDomain "github.com/colectivo/service-routemap/internal/domain/routemap"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL  = "https://graphhopper.com/api/1"
	DefaultTimeout  = 10 * time.Second
	DefaultCacheTTL = 10 * time.Minute

	vehicleCar    = "car"
	localeSpanish = "es"

	msgNetworkError = "Error de red al contactar GraphHopper"
	msgNoRoute      = "No se encontró una ruta válida en la respuesta de GraphHopper"
)

// Config holds the client settings.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// APIError is returned when the routing service rejects a request or
// answers without a usable path.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

type routeRequest struct {
	Points        [][2]float64 `json:"points"`
	Vehicle       string       `json:"vehicle"`
	Locale        string       `json:"locale"`
	PointsEncoded bool         `json:"points_encoded"`
}

type routeResponse struct {
	Message string      `json:"message"`
	Paths   []routePath `json:"paths"`
}

type routePath struct {
	Distance float64 `json:"distance"`
	Time     int64   `json:"time"`
	Points   struct {
		Type        string      `json:"type"`
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"points"`
}

// Client calls the routing endpoint, one request per batch of stops.
// Successful paths are cached per API key by their ordered waypoint list.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.Cache
	logger     *zap.Logger
}

// NewClient creates a Client. Zero config fields fall back to the defaults.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache:  cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		logger: logger,
	}
}

// FetchBatch resolves the driving path through the given stops, which must
// number at least two. Points go out longitude-first and come back
// latitude-first, so a stop sent as [lat, lng] is returned in the same order.
func (c *Client) FetchBatch(ctx context.Context, points []routemapDomain.LatLng, style routemapDomain.PolylineStyle, apiKey string) (*routemapDomain.Route, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("a route batch needs at least 2 points, got %d", len(points))
	}

	key := cacheKey(apiKey, points)
	if cached, ok := c.cache.Get(key); ok {
		c.logger.Debug("route batch served from cache", zap.Int("points", len(points)))
		return cached.(resolvedPath).route(style), nil
	}

	path, err := c.route(ctx, points, apiKey)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, path, cache.DefaultExpiration)
	return path.route(style), nil
}

// resolvedPath is a decoded path as kept in the cache, independent of styling.
type resolvedPath struct {
	coords     []routemapDomain.LatLng
	distanceM  float64
	durationMs int64
}

func (p resolvedPath) route(style routemapDomain.PolylineStyle) *routemapDomain.Route {
	return &routemapDomain.Route{
		Coords:     append([]routemapDomain.LatLng(nil), p.coords...),
		Style:      style,
		DistanceM:  p.distanceM,
		DurationMs: p.durationMs,
	}
}

func (c *Client) route(ctx context.Context, points []routemapDomain.LatLng, apiKey string) (resolvedPath, error) {
	body := routeRequest{
		Points:        make([][2]float64, len(points)),
		Vehicle:       vehicleCar,
		Locale:        localeSpanish,
		PointsEncoded: false,
	}
	for i, p := range points {
		body.Points[i] = p.LonLat()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return resolvedPath{}, fmt.Errorf("failed to encode route request: %w", err)
	}

	endpoint := c.baseURL + "/route?key=" + url.QueryEscape(apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return resolvedPath{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return resolvedPath{}, fmt.Errorf("failed to call GraphHopper API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var decoded routeResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := msgNetworkError
		if decodeErr == nil && decoded.Message != "" {
			msg = decoded.Message
		}
		return resolvedPath{}, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return resolvedPath{}, fmt.Errorf("failed to decode GraphHopper response: %w", decodeErr)
	}

	if len(decoded.Paths) == 0 {
		msg := msgNoRoute
		if decoded.Message != "" {
			msg = decoded.Message
		}
		return resolvedPath{}, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	best := decoded.Paths[0]
	raw := best.Points.Coordinates
	coords := make([]routemapDomain.LatLng, 0, len(raw))
	for _, c := range raw {
		// entries may carry a third elevation value
		if len(c) < 2 {
			continue
		}
		coords = append(coords, routemapDomain.FromLonLat(c[0], c[1]))
	}
	return resolvedPath{coords: coords, distanceM: best.Distance, durationMs: best.Time}, nil
}

// cacheKey scopes entries to a credential so a revoked key is sent to the
// service again instead of being answered from cache.
func cacheKey(apiKey string, points []routemapDomain.LatLng) string {
	sum := sha256.Sum256([]byte(apiKey))
	var b strings.Builder
	b.WriteString(hex.EncodeToString(sum[:8]))
	b.WriteString(vehicleCar)
	for _, p := range points {
		b.WriteString(p.String())
	}
	return b.String()
}
