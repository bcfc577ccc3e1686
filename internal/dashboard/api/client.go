package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"

	"github.com/akashpd1729/mit-hackathon/internal/analytics"
	"github.com/akashpd1729/mit-hackathon/internal/anomaly"
	"github.com/akashpd1729/mit-hackathon/internal/dataset"
	"github.com/akashpd1729/mit-hackathon/internal/domain"
	"github.com/akashpd1729/mit-hackathon/internal/report"
)

// Client talks to the water pressure API.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type Health struct {
	Status string `json:"status"`
	Zones  int    `json:"zones"`
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.getJSON(ctx, "/health", &out, nil)
	return out, err
}

// WaitReady polls the health endpoint with exponential backoff until the API
// answers, so the dashboard may start before the API does.
func (c *Client) WaitReady(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	return backoff.Retry(func() error {
		_, err := c.Health(ctx)
		return err
	}, backoff.WithContext(bo, ctx))
}

func (c *Client) Zones(ctx context.Context) ([]domain.Zone, error) {
	var out []domain.Zone
	err := c.getJSON(ctx, "/zones", &out, nil)
	return out, err
}

func (c *Client) ZoneHealth(ctx context.Context) ([]report.ZoneHealth, error) {
	var out []report.ZoneHealth
	err := c.getJSON(ctx, "/zones/health", &out, nil)
	return out, err
}

func (c *Client) Overview(ctx context.Context) (report.Overview, error) {
	var out report.Overview
	err := c.getJSON(ctx, "/overview", &out, nil)
	return out, err
}

func (c *Client) ZoneStats(ctx context.Context) ([]analytics.ZoneStats, error) {
	var out []analytics.ZoneStats
	err := c.getJSON(ctx, "/stats/zones", &out, nil)
	return out, err
}

func (c *Client) FlowStats(ctx context.Context) ([]analytics.FlowStats, error) {
	var out []analytics.FlowStats
	err := c.getJSON(ctx, "/stats/flow", &out, nil)
	return out, err
}

// Hourly fetches the hour-of-day means for metric ("pressure" or "flow"),
// optionally restricted to one zone.
func (c *Client) Hourly(ctx context.Context, metric, zoneID string) ([]analytics.HourlyPoint, error) {
	params := url.Values{}
	params.Set("metric", metric)
	if zoneID != "" {
		params.Set("zone", zoneID)
	}
	var out []analytics.HourlyPoint
	err := c.getJSON(ctx, "/stats/hourly", &out, params)
	return out, err
}

func (c *Client) Peaks(ctx context.Context) ([]analytics.HourlyPoint, error) {
	var out []analytics.HourlyPoint
	err := c.getJSON(ctx, "/stats/peaks", &out, nil)
	return out, err
}

func (c *Client) Sensors(ctx context.Context, zoneID string) ([]analytics.SensorStats, error) {
	params := url.Values{}
	params.Set("zone", zoneID)
	var out []analytics.SensorStats
	err := c.getJSON(ctx, "/stats/sensors", &out, params)
	return out, err
}

func (c *Client) Distribution(ctx context.Context) ([]analytics.DistributionBucket, error) {
	var out []analytics.DistributionBucket
	err := c.getJSON(ctx, "/stats/distribution", &out, nil)
	return out, err
}

func (c *Client) Trends(ctx context.Context, days int) ([]analytics.DailyTrend, error) {
	params := url.Values{}
	params.Set("days", strconv.Itoa(days))
	var out []analytics.DailyTrend
	err := c.getJSON(ctx, "/stats/trends", &out, params)
	return out, err
}

func (c *Client) LowPressure(ctx context.Context) ([]analytics.LowPressureZone, error) {
	var out []analytics.LowPressureZone
	err := c.getJSON(ctx, "/stats/lowpressure", &out, nil)
	return out, err
}

func (c *Client) PressureReadings(ctx context.Context, zoneID string, hours, limit int) ([]domain.PressureReading, error) {
	var out []domain.PressureReading
	err := c.getJSON(ctx, "/readings/pressure", &out, seriesParams(zoneID, hours, limit))
	return out, err
}

func (c *Client) FlowReadings(ctx context.Context, zoneID string, hours, limit int) ([]domain.FlowReading, error) {
	var out []domain.FlowReading
	err := c.getJSON(ctx, "/readings/flow", &out, seriesParams(zoneID, hours, limit))
	return out, err
}

func (c *Client) PressureAnomalies(ctx context.Context) ([]anomaly.PressureAnomaly, error) {
	var out []anomaly.PressureAnomaly
	err := c.getJSON(ctx, "/anomalies/pressure", &out, nil)
	return out, err
}

func (c *Client) FlowAnomalies(ctx context.Context) ([]anomaly.FlowAnomaly, error) {
	var out []anomaly.FlowAnomaly
	err := c.getJSON(ctx, "/anomalies/flow", &out, nil)
	return out, err
}

func (c *Client) Leaks(ctx context.Context) ([]anomaly.LeakIndicator, error) {
	var out []anomaly.LeakIndicator
	err := c.getJSON(ctx, "/anomalies/leaks", &out, nil)
	return out, err
}

func (c *Client) Bursts(ctx context.Context) ([]anomaly.BurstEvent, error) {
	var out []anomaly.BurstEvent
	err := c.getJSON(ctx, "/anomalies/bursts", &out, nil)
	return out, err
}

func (c *Client) Summary(ctx context.Context) (anomaly.Summary, error) {
	var out anomaly.Summary
	err := c.getJSON(ctx, "/anomalies/summary", &out, nil)
	return out, err
}

func (c *Client) WaterLoss(ctx context.Context) ([]analytics.WaterLossEstimate, error) {
	var out []analytics.WaterLossEstimate
	err := c.getJSON(ctx, "/waterloss", &out, nil)
	return out, err
}

func (c *Client) Recommendations(ctx context.Context) ([]report.Recommendation, error) {
	var out []report.Recommendation
	err := c.getJSON(ctx, "/recommendations", &out, nil)
	return out, err
}

func (c *Client) Performance(ctx context.Context) (report.Performance, error) {
	var out report.Performance
	err := c.getJSON(ctx, "/metrics/performance", &out, nil)
	return out, err
}

func (c *Client) GenerateReport(ctx context.Context) (report.Report, error) {
	var out report.Report
	err := c.postJSON(ctx, "/reports/generate", &out)
	return out, err
}

func (c *Client) LatestReport(ctx context.Context) (report.Report, error) {
	var out report.Report
	err := c.getJSON(ctx, "/reports/latest", &out, nil)
	return out, err
}

func (c *Client) Regenerate(ctx context.Context) (dataset.Manifest, error) {
	var out dataset.Manifest
	err := c.postJSON(ctx, "/data/regenerate", &out)
	return out, err
}

func seriesParams(zoneID string, hours, limit int) url.Values {
	params := url.Values{}
	if zoneID != "" {
		params.Set("zone", zoneID)
	}
	params.Set("hours", strconv.Itoa(hours))
	params.Set("limit", strconv.Itoa(limit))
	return params
}

func (c *Client) getJSON(ctx context.Context, path string, out any, params url.Values) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %s", req.Method, req.URL.Path, resp.Status)
	}
	if out == nil {
		return nil
	}
	return sonic.Unmarshal(body, out)
}
