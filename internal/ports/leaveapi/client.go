package leaveapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"attendance.service/internal/core/model"
)

// Client is the read-only on-duty source: which approved OD intervals
// exist for an employee on a date. The leave-management system owns
// approvals; we only ever read them.
type Client interface {
	ApprovedIntervals(ctx context.Context, employeeID string, date time.Time) ([]model.OnDutyInterval, error)
}

// odResponse is the wire shape the leave service returns.
type odResponse struct {
	EmployeeID string  `json:"employeeId"`
	Date       string  `json:"date"`
	StartTime  *string `json:"startTime,omitempty"`
	EndTime    *string `json:"endTime,omitempty"`
	FullDay    bool    `json:"fullDay"`
	HalfDay    bool    `json:"halfDay"`
	Approved   bool    `json:"approved"`
}

// HTTPClient calls the leave service over HTTP. A circuit breaker sits
// in front so a struggling leave service fails attendance units fast
// instead of tying up workers; the unit is retried later either way.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	cb      *gobreaker.CircuitBreaker
}

// NewHTTPClient new HTTPClient
func NewHTTPClient(baseURL string) *HTTPClient {
	settings := gobreaker.Settings{
		Name:        "Leave-API",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate is bigger then 50% after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		cb:      gobreaker.NewCircuitBreaker(settings),
	}
}

// ApprovedIntervals fetches the approved OD intervals for one employee/date.
func (c *HTTPClient) ApprovedIntervals(ctx context.Context, employeeID string, date time.Time) ([]model.OnDutyInterval, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.fetch(ctx, employeeID, date)
	})
	if err != nil {
		return nil, fmt.Errorf("leave api read failed: %w", err)
	}
	return result.([]model.OnDutyInterval), nil
}

func (c *HTTPClient) fetch(ctx context.Context, employeeID string, date time.Time) ([]model.OnDutyInterval, error) {
	u := fmt.Sprintf("%sapproved-od?employeeId=%s&date=%s",
		c.baseURL, url.QueryEscape(employeeID), date.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create leave api request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call leave api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("leave api returned non-successful status code: %d", resp.StatusCode)
	}

	var payload []odResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode leave api response: %w", err)
	}

	intervals := make([]model.OnDutyInterval, 0, len(payload))
	for _, item := range payload {
		iv := model.OnDutyInterval{
			EmployeeID: item.EmployeeID,
			Date:       date,
			FullDay:    item.FullDay,
			HalfDay:    item.HalfDay,
			Approved:   item.Approved,
		}
		if item.StartTime != nil {
			tod, err := model.ParseTimeOfDay(*item.StartTime)
			if err != nil {
				return nil, err
			}
			iv.StartTime = &tod
		}
		if item.EndTime != nil {
			tod, err := model.ParseTimeOfDay(*item.EndTime)
			if err != nil {
				return nil, err
			}
			iv.EndTime = &tod
		}
		intervals = append(intervals, iv)
	}
	return intervals, nil
}
