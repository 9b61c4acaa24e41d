package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"rentline/internal/config"
	"rentline/internal/domain"
	"rentline/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Client calls the upstream booking backend. It owns no business logic:
// request/response mapping, correlation IDs and optional read-through
// caching only.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zerolog.Logger

	cache    domain.Store
	cacheTTL time.Duration
}

func New(cfg config.UpstreamConfig, logger *zerolog.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// UseCache configures read-through caching for GET endpoints. Cached
// availability entries are tagged so bookings can invalidate them.
func (c *Client) UseCache(store domain.Store, ttl time.Duration) {
	c.cache = store
	c.cacheTTL = ttl
}

// AvailabilityRangeTag scopes cached availability to one date range.
func AvailabilityRangeTag(startDate, endDate string) string {
	return fmt.Sprintf("availability:%s:%s", startDate, endDate)
}

// ListEquipment returns the upstream equipment catalog, newest first.
// limit <= 0 means no limit.
func (c *Client) ListEquipment(ctx context.Context, limit int) ([]models.Equipment, error) {
	endpoint := c.baseURL + "/equipment"
	if limit > 0 {
		endpoint += fmt.Sprintf("?limit=%d", limit)
	}
	cacheKey := fmt.Sprintf("equipment:list:%d", limit)

	var wrap struct {
		Equipment []models.Equipment `json:"equipment"`
	}
	if c.readCache(ctx, cacheKey, &wrap) {
		return wrap.Equipment, nil
	}

	if err := c.doGet(ctx, endpoint, &wrap); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, wrap, models.TagEquipmentAvailability)
	return wrap.Equipment, nil
}

// GetAvailability reports whether the equipment is free for the whole
// [startDate, endDate) range.
func (c *Client) GetAvailability(ctx context.Context, equipmentID, startDate, endDate string) (bool, error) {
	endpoint := fmt.Sprintf("%s/equipment/%s/availability?start=%s&end=%s",
		c.baseURL, url.PathEscape(equipmentID), url.QueryEscape(startDate), url.QueryEscape(endDate))
	cacheKey := fmt.Sprintf("availability:%s:%s:%s", equipmentID, startDate, endDate)

	var resp struct {
		Available bool `json:"available"`
	}
	if c.readCache(ctx, cacheKey, &resp) {
		return resp.Available, nil
	}

	if err := c.doGet(ctx, endpoint, &resp); err != nil {
		return false, err
	}
	c.writeCache(ctx, cacheKey, resp,
		models.TagEquipmentAvailability, AvailabilityRangeTag(startDate, endDate))
	return resp.Available, nil
}

type createBookingRequest struct {
	EquipmentID     string  `json:"equipment_id"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	DeliveryAddress string  `json:"delivery_address"`
	DeliveryCity    string  `json:"delivery_city"`
	CustomerEmail   string  `json:"customer_email"`
	CustomerName    string  `json:"customer_name"`
	Total           float64 `json:"total"`
}

// CreateBooking creates a booking upstream and returns the created record.
func (c *Client) CreateBooking(ctx context.Context, req models.BookingRequest, equipmentID string, total float64) (*models.Booking, error) {
	body := createBookingRequest{
		EquipmentID:     equipmentID,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryCity:    req.DeliveryCity,
		CustomerEmail:   req.CustomerEmail,
		CustomerName:    req.CustomerName,
		Total:           total,
	}

	var booking models.Booking
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/bookings", body, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListBookings returns all bookings visible to this client.
func (c *Client) ListBookings(ctx context.Context) ([]models.Booking, error) {
	var wrap struct {
		Bookings []models.Booking `json:"bookings"`
	}
	if err := c.doGet(ctx, c.baseURL+"/bookings", &wrap); err != nil {
		return nil, err
	}
	return wrap.Bookings, nil
}

// UpdateBookingStatus moves a booking through its upstream lifecycle.
func (c *Client) UpdateBookingStatus(ctx context.Context, bookingID, status string) (*models.Booking, error) {
	endpoint := fmt.Sprintf("%s/bookings/%s/status", c.baseURL, url.PathEscape(bookingID))
	body := map[string]string{"status": status}

	var booking models.Booking
	if err := c.doJSON(ctx, http.MethodPut, endpoint, body, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// Me returns the authenticated upstream account.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.doGet(ctx, c.baseURL+"/auth/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile updates the upstream account profile.
func (c *Client) UpdateProfile(ctx context.Context, user models.User) error {
	return c.doJSON(ctx, http.MethodPut, c.baseURL+"/users/profile", user, nil)
}

// Ping checks upstream reachability for the health probes.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/equipment?limit=1", nil)
	if err != nil {
		return err
	}
	c.addHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("upstream returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.cache == nil || c.cacheTTL <= 0 {
		return false
	}
	hit, err := c.cache.GetJSON(ctx, key, out)
	if err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("cache read failed")
		return false
	}
	return hit
}

func (c *Client) writeCache(ctx context.Context, key string, val any, tags ...string) {
	if c.cache == nil || c.cacheTTL <= 0 {
		return
	}
	if err := c.cache.SetJSON(ctx, key, val, c.cacheTTL, tags...); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	c.addHeaders(req)
	return c.do(req, out)
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.addHeaders(req)
	return c.do(req, out)
}

func (c *Client) addHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Correlation-ID", uuid.NewString())
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", req.URL.Path, err)
	}
	return nil
}

func (c *Client) decodeError(resp *http.Response) error {
	var apiErr struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(data, &apiErr); err == nil {
		if apiErr.Error != "" {
			return fmt.Errorf("upstream %d: %s", resp.StatusCode, apiErr.Error)
		}
		if apiErr.Message != "" {
			return fmt.Errorf("upstream %d: %s", resp.StatusCode, apiErr.Message)
		}
	}
	return fmt.Errorf("upstream returned %d", resp.StatusCode)
}
