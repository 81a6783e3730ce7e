// Package api is the typed client for the uptime dashboard REST API.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Error is a failed API call: either a non-2xx response carrying the
// server's {"error": ...} body, or a transport failure. Both surface
// the same way, as a human-readable message.
type Error struct {
	Status  int // 0 for transport failures
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

type Service struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	CheckInterval int       `json:"check_interval"`
	Timeout       int       `json:"timeout"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	LastStatus    string    `json:"last_status,omitempty"`
	LastCheck     time.Time `json:"last_check,omitempty"`
	Uptime        float64   `json:"uptime,omitempty"`
}

type Check struct {
	ID           int       `json:"id"`
	ServiceID    int       `json:"service_id"`
	Status       string    `json:"status"`
	ResponseTime int       `json:"response_time"`
	ErrorMessage string    `json:"error_message"`
	CheckedAt    time.Time `json:"checked_at"`
}

type Alert struct {
	ID         int        `json:"id"`
	ServiceID  int        `json:"service_id"`
	Message    string     `json:"message"`
	Severity   string     `json:"severity"`
	IsResolved bool       `json:"is_resolved"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at"`
	Service    *Service   `json:"service,omitempty"`
}

type Stats struct {
	TotalServices     int     `json:"total_services"`
	HealthyServices   int     `json:"healthy_services"`
	UnhealthyServices int     `json:"unhealthy_services"`
	AverageUptime     float64 `json:"average_uptime"`
	ActiveAlerts      int     `json:"active_alerts"`
}

type CreateServiceRequest struct {
	Name          string `json:"name"`
	URL           string `json:"url"`
	CheckInterval int    `json:"check_interval"`
	Timeout       int    `json:"timeout"`
}

type UpdateServiceRequest struct {
	Name          string `json:"name,omitempty"`
	URL           string `json:"url,omitempty"`
	CheckInterval int    `json:"check_interval,omitempty"`
	Timeout       int    `json:"timeout,omitempty"`
}

func (c *Client) ListServices() ([]Service, error) {
	var services []Service
	if err := c.get("/api/v1/services", &services, "Ошибка загрузки сервисов"); err != nil {
		return nil, err
	}
	return services, nil
}

func (c *Client) CreateService(req CreateServiceRequest) error {
	return c.send(http.MethodPost, "/api/v1/services", req, "Ошибка создания сервиса")
}

func (c *Client) GetService(id int) (*Service, error) {
	var svc Service
	if err := c.get("/api/v1/services/"+strconv.Itoa(id), &svc, "Ошибка загрузки сервиса"); err != nil {
		return nil, err
	}
	return &svc, nil
}

func (c *Client) UpdateService(id int, req UpdateServiceRequest) error {
	return c.send(http.MethodPut, "/api/v1/services/"+strconv.Itoa(id), req, "Ошибка обновления сервиса")
}

func (c *Client) DeleteService(id int) error {
	return c.send(http.MethodDelete, "/api/v1/services/"+strconv.Itoa(id), nil, "Ошибка удаления сервиса")
}

func (c *Client) ListChecks(serviceID, limit int) ([]Check, error) {
	var checks []Check
	path := fmt.Sprintf("/api/v1/services/%d/checks?limit=%d", serviceID, limit)
	if err := c.get(path, &checks, "Ошибка загрузки истории проверок"); err != nil {
		return nil, err
	}
	return checks, nil
}

func (c *Client) ListAlerts() ([]Alert, error) {
	var alerts []Alert
	if err := c.get("/api/v1/alerts", &alerts, "Ошибка загрузки алертов"); err != nil {
		return nil, err
	}
	return alerts, nil
}

func (c *Client) ResolveAlert(id int) error {
	return c.send(http.MethodPut, "/api/v1/alerts/"+strconv.Itoa(id)+"/resolve", nil, "Ошибка разрешения алерта")
}

func (c *Client) GetStats() (*Stats, error) {
	var stats Stats
	if err := c.get("/api/v1/stats", &stats, "Ошибка загрузки статистики"); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) get(path string, v any, fallback string) error {
	req, err := http.NewRequest(http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return &Error{Message: fallback}
	}
	resp, err := c.do(req)
	if err != nil {
		return &Error{Message: fallback}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp, fallback)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &Error{Message: fallback}
	}
	return nil
}

func (c *Client) send(method, path string, body any, fallback string) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Message: fallback}
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.BaseURL+path, rd)
	if err != nil {
		return &Error{Message: fallback}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.do(req)
	if err != nil {
		return &Error{Message: fallback}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp, fallback)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// do stamps the request with an id so client calls can be correlated in
// the server's logs, then executes it.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("X-Request-Id", uuid.NewString())
	return c.HTTPClient.Do(req)
}

func apiError(resp *http.Response, fallback string) error {
	var body struct {
		Error string `json:"error"`
	}
	msg := fallback
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		msg = body.Error
	}
	return &Error{Status: resp.StatusCode, Message: msg}
}

// WebSocketURL derives the push channel endpoint from the base URL,
// keeping the page's transport security (http→ws, https→wss).
func (c *Client) WebSocketURL() string {
	base := c.BaseURL
	base = strings.Replace(base, "http://", "ws://", 1)
	base = strings.Replace(base, "https://", "wss://", 1)
	return base + "/api/v1/ws"
}
