package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/finops/coa-adapter/internal/domain/chart"
)

const targetDateLayout = "2006-01-02"

// ChartService serves processed charts and tag listings.
type ChartService interface {
	Chart(ctx context.Context, opts chart.Options) (chart.Chart, error)
	Tags(ctx context.Context, opts chart.Options) ([]string, error)
}

// ReportService renders the trial-balance CSV for a period.
type ReportService interface {
	BalancesCSV(ctx context.Context, target time.Time, opts chart.Options) (string, error)
}

// OptionDefaults are the configured processing defaults applied when a
// request does not set the corresponding query parameter.
type OptionDefaults struct {
	HideInactive  bool
	ShowOther     bool
	ShowNoProgram bool
}

// COAHandler serves the chart-of-accounts routes.
type COAHandler struct {
	BaseHandler
	charts   ChartService
	reports  ReportService
	defaults OptionDefaults
	logger   *zap.Logger
}

// NewCOAHandler creates a COAHandler.
func NewCOAHandler(charts ChartService, reports ReportService, defaults OptionDefaults, logger *zap.Logger) *COAHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &COAHandler{
		charts:   charts,
		reports:  reports,
		defaults: defaults,
		logger:   logger,
	}
}

// RegisterRoutes registers the chart routes on the API group.
func (h *COAHandler) RegisterRoutes(rg *gin.RouterGroup) {
	coa := rg.Group("/coa")
	{
		coa.GET("", h.GetChart)
		coa.GET("/tags", h.GetTags)
		coa.GET("/balances.csv", h.GetBalancesCSV)
	}
}

// GetChart handles GET /coa
func (h *COAHandler) GetChart(c *gin.Context) {
	opts, err := h.parseOptions(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	processed, err := h.charts.Chart(c.Request.Context(), opts)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, processed)
}

// GetTags handles GET /coa/tags
func (h *COAHandler) GetTags(c *gin.Context) {
	opts, err := h.parseOptions(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tags, err := h.charts.Tags(c.Request.Context(), opts)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tags)
}

// GetBalancesCSV handles GET /coa/balances.csv
func (h *COAHandler) GetBalancesCSV(c *gin.Context) {
	opts, err := h.parseOptions(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	target := time.Now()
	if raw := c.Query("target_date"); raw != "" {
		target, err = time.Parse(targetDateLayout, raw)
		if err != nil {
			h.BadRequest(c, fmt.Sprintf("invalid target_date %q, expected YYYY-MM-DD", raw))
			return
		}
	}

	csv, err := h.reports.BalancesCSV(c.Request.Context(), target, opts)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csv))
}

// parseOptions builds processing options from the query string on top
// of the configured defaults.
func (h *COAHandler) parseOptions(c *gin.Context) (chart.Options, error) {
	opts := chart.Options{
		HideInactive:  h.defaults.HideInactive,
		ShowOther:     h.defaults.ShowOther,
		ShowNoProgram: h.defaults.ShowNoProgram,
	}

	showInactive, err := queryBool(c, "show_inactive_codes", !opts.HideInactive)
	if err != nil {
		return opts, err
	}
	opts.HideInactive = !showInactive

	if opts.ShowOther, err = queryBool(c, "show_other_code", opts.ShowOther); err != nil {
		return opts, err
	}

	hideNoProgram, err := queryBool(c, "hide_no_program_code", !opts.ShowNoProgram)
	if err != nil {
		return opts, err
	}
	opts.ShowNoProgram = !hideNoProgram

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return opts, fmt.Errorf("invalid limit %q, expected a non-negative integer", raw)
		}
		opts.Limit = limit
	}

	if raw := c.Query("priority_codes"); raw != "" {
		for _, code := range strings.Split(raw, ",") {
			if code = strings.TrimSpace(code); code != "" {
				opts.PriorityCodes = append(opts.PriorityCodes, code)
			}
		}
	}
	return opts, nil
}

func queryBool(c *gin.Context, name string, fallback bool) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q, expected a boolean", name, raw)
	}
	return value, nil
}
