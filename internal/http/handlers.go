package http

import (
	"errors"
	"io/fs"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	recovermw "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/akashpd1729/mit-hackathon/internal/analytics"
	"github.com/akashpd1729/mit-hackathon/internal/anomaly"
	"github.com/akashpd1729/mit-hackathon/internal/dataset"
	"github.com/akashpd1729/mit-hackathon/internal/report"
	"github.com/akashpd1729/mit-hackathon/internal/service"
)

// NewApp builds the API application: sonic as the JSON codec, errors shaped
// as {"error": ...}, every route registered.
func NewApp(svcs *service.Services) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:     "water-pressure-api",
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	Register(app, svcs)
	return app
}

func Register(app *fiber.App, svcs *service.Services) {
	h := &api{svcs: svcs}

	app.Use(recovermw.New())
	app.Use(h.observe)

	app.Get("/health", h.health)
	app.Get("/zones", h.zones)
	app.Get("/zones/health", h.zoneHealth)
	app.Get("/overview", h.overview)

	app.Get("/stats/zones", h.zoneStats)
	app.Get("/stats/flow", h.flowStats)
	app.Get("/stats/compare", h.compareZones)
	app.Get("/stats/hourly", h.hourly)
	app.Get("/stats/peaks", h.peaks)
	app.Get("/stats/sensors", h.sensors)
	app.Get("/stats/distribution", h.distribution)
	app.Get("/stats/trends", h.trends)
	app.Get("/stats/lowpressure", h.lowPressure)

	app.Get("/readings/pressure", h.pressureReadings)
	app.Get("/readings/flow", h.flowReadings)

	app.Get("/anomalies/pressure", h.pressureAnomalies)
	app.Get("/anomalies/flow", h.flowAnomalies)
	app.Get("/anomalies/leaks", h.leaks)
	app.Get("/anomalies/bursts", h.bursts)
	app.Get("/anomalies/summary", h.anomalySummary)

	app.Get("/waterloss", h.waterLoss)
	app.Get("/recommendations", h.recommendations)
	app.Get("/metrics/performance", h.performance)

	app.Post("/reports/generate", h.generateReport)
	app.Get("/reports/latest", h.latestReport)

	app.Post("/data/regenerate", h.regenerate)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

type api struct {
	svcs *service.Services
}

// observe logs every request and feeds the request metrics. The route
// pattern, not the raw path, keys the counter to keep cardinality bounded.
func (h *api) observe(c *fiber.Ctx) error {
	started := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	elapsed := time.Since(started)
	h.svcs.Metrics.ObserveRequest(c.Route().Path, status, elapsed)

	log.Info().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Dur("elapsed", elapsed).
		Msg("request")
	return err
}

func (h *api) health(c *fiber.Ctx) error {
	ds := h.svcs.Snapshot()
	return c.JSON(fiber.Map{
		"status":    "ok",
		"loaded_at": ds.LoadedAt,
		"zones":     len(ds.Zones),
	})
}

func (h *api) zones(c *fiber.Ctx) error {
	return c.JSON(h.svcs.Snapshot().Zones)
}

func (h *api) zoneHealth(c *fiber.Ctx) error {
	return c.JSON(h.svcs.Reports.ZoneHealth(h.svcs.Snapshot(), time.Now().UTC()))
}

func (h *api) overview(c *fiber.Ctx) error {
	return c.JSON(report.BuildOverview(h.svcs.Snapshot()))
}

func (h *api) zoneStats(c *fiber.Ctx) error {
	return c.JSON(analytics.ZoneStatistics(h.svcs.Snapshot()))
}

func (h *api) flowStats(c *fiber.Ctx) error {
	return c.JSON(analytics.FlowStatistics(h.svcs.Snapshot()))
}

func (h *api) compareZones(c *fiber.Ctx) error {
	return c.JSON(analytics.CompareZones(h.svcs.Snapshot()))
}

func (h *api) hourly(c *fiber.Ctx) error {
	ds := h.svcs.Snapshot()
	zoneID, err := zoneParam(c, ds, false)
	if err != nil {
		return err
	}
	switch metric := c.Query("metric", "pressure"); metric {
	case "pressure":
		return c.JSON(analytics.HourlyPressure(ds, zoneID))
	case "flow":
		return c.JSON(analytics.HourlyFlow(ds, zoneID))
	default:
		return fiber.NewError(fiber.StatusBadRequest, "metric must be pressure or flow")
	}
}

func (h *api) peaks(c *fiber.Ctx) error {
	return c.JSON(analytics.PeakDemandTimes(h.svcs.Snapshot()))
}

func (h *api) sensors(c *fiber.Ctx) error {
	ds := h.svcs.Snapshot()
	zoneID, err := zoneParam(c, ds, true)
	if err != nil {
		return err
	}
	return c.JSON(analytics.SensorStatistics(ds, zoneID))
}

func (h *api) distribution(c *fiber.Ctx) error {
	return c.JSON(analytics.PressureDistribution(h.svcs.Snapshot()))
}

func (h *api) trends(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)
	if days < 1 || days > 90 {
		return fiber.NewError(fiber.StatusBadRequest, "days must be between 1 and 90")
	}
	return c.JSON(analytics.RecentTrends(h.svcs.Snapshot(), time.Now(), days))
}

func (h *api) lowPressure(c *fiber.Ctx) error {
	threshold, err := floatParam(c, "threshold", h.svcs.Opts.LowPressure)
	if err != nil {
		return err
	}
	out := analytics.LowPressureZones(h.svcs.Snapshot(), threshold, time.Now(), service.LowPressureWindow)
	return c.JSON(out)
}

func (h *api) pressureReadings(c *fiber.Ctx) error {
	ds := h.svcs.Snapshot()
	zoneID, window, limit, err := seriesParams(c, ds)
	if err != nil {
		return err
	}
	return c.JSON(analytics.RecentPressure(ds, zoneID, time.Now(), window, limit))
}

func (h *api) flowReadings(c *fiber.Ctx) error {
	ds := h.svcs.Snapshot()
	zoneID, window, limit, err := seriesParams(c, ds)
	if err != nil {
		return err
	}
	return c.JSON(analytics.RecentFlow(ds, zoneID, time.Now(), window, limit))
}

func (h *api) pressureAnomalies(c *fiber.Ctx) error {
	det, err := h.tunedDetector(c, func(d *anomaly.Detector, v float64) { d.PressureZ = v })
	if err != nil {
		return err
	}
	return c.JSON(det.PressureAnomalies(h.svcs.Snapshot()))
}

func (h *api) flowAnomalies(c *fiber.Ctx) error {
	det, err := h.tunedDetector(c, func(d *anomaly.Detector, v float64) { d.FlowZ = v })
	if err != nil {
		return err
	}
	return c.JSON(det.FlowAnomalies(h.svcs.Snapshot()))
}

func (h *api) leaks(c *fiber.Ctx) error {
	det, err := h.tunedDetector(c, func(d *anomaly.Detector, v float64) { d.NightFlow = v })
	if err != nil {
		return err
	}
	return c.JSON(det.Leaks(h.svcs.Snapshot()))
}

func (h *api) bursts(c *fiber.Ctx) error {
	det, err := h.tunedDetector(c, func(d *anomaly.Detector, v float64) { d.BurstDrop = v })
	if err != nil {
		return err
	}
	return c.JSON(det.Bursts(h.svcs.Snapshot()))
}

func (h *api) anomalySummary(c *fiber.Ctx) error {
	return c.JSON(h.svcs.Scan().Summary)
}

func (h *api) waterLoss(c *fiber.Ctx) error {
	return c.JSON(analytics.WaterLoss(h.svcs.Snapshot()))
}

func (h *api) recommendations(c *fiber.Ctx) error {
	out := h.svcs.Reports.Recommendations(h.svcs.Snapshot(), time.Now())
	return c.JSON(out)
}

func (h *api) performance(c *fiber.Ctx) error {
	return c.JSON(h.svcs.Reports.Performance(h.svcs.Snapshot()))
}

func (h *api) generateReport(c *fiber.Ctx) error {
	r, path, err := h.svcs.GenerateReport(time.Now())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	log.Info().Str("report_id", r.ReportID).Str("path", path).Msg("report exported")
	return c.Status(fiber.StatusCreated).JSON(r)
}

func (h *api) latestReport(c *fiber.Ctx) error {
	r, err := h.svcs.LatestReport()
	if errors.Is(err, fs.ErrNotExist) {
		return fiber.NewError(fiber.StatusNotFound, "no report generated yet")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(r)
}

func (h *api) regenerate(c *fiber.Ctx) error {
	m, err := h.svcs.Regenerate()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(m)
}

// tunedDetector copies the configured detector, optionally overriding one
// threshold from the request.
func (h *api) tunedDetector(c *fiber.Ctx, set func(*anomaly.Detector, float64)) (*anomaly.Detector, error) {
	det := *h.svcs.Detector
	if v := c.Query("threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "threshold must be a number")
		}
		set(&det, f)
	}
	return &det, nil
}

func zoneParam(c *fiber.Ctx, ds *dataset.Dataset, required bool) (string, error) {
	zoneID := c.Query("zone")
	if zoneID == "" {
		if required {
			return "", fiber.NewError(fiber.StatusBadRequest, "zone parameter is required")
		}
		return "", nil
	}
	if _, ok := ds.Zone(zoneID); !ok {
		return "", fiber.NewError(fiber.StatusNotFound, "unknown zone "+zoneID)
	}
	return zoneID, nil
}

func floatParam(c *fiber.Ctx, name string, def float64) (float64, error) {
	v := c.Query(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, name+" must be a number")
	}
	return f, nil
}

// seriesParams parses the shared zone/hours/limit query for the chart series
// endpoints. The window defaults to the last 24 hours capped at 500 points.
func seriesParams(c *fiber.Ctx, ds *dataset.Dataset) (string, time.Duration, int, error) {
	zoneID, err := zoneParam(c, ds, false)
	if err != nil {
		return "", 0, 0, err
	}
	hours := c.QueryInt("hours", 24)
	if hours < 1 || hours > 24*90 {
		return "", 0, 0, fiber.NewError(fiber.StatusBadRequest, "hours must be between 1 and 2160")
	}
	limit := c.QueryInt("limit", 500)
	if limit < 0 {
		return "", 0, 0, fiber.NewError(fiber.StatusBadRequest, "limit must not be negative")
	}
	return zoneID, time.Duration(hours) * time.Hour, limit, nil
}
