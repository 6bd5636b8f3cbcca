package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"replenishment-service/internal/demand"
	"replenishment-service/internal/engine"
	"replenishment-service/internal/middleware"
	"replenishment-service/internal/model"
	"replenishment-service/internal/report"
	"replenishment-service/pkg/logger"
	"replenishment-service/pkg/runlock"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Pipeline is the part of the engine the HTTP layer drives
type Pipeline interface {
	SuggestPurchases(ctx context.Context, dryRun bool) (*report.Report, error)
	AnalyzeABC(ctx context.Context, periodDays int, tier model.Tier) (*engine.ABCReport, error)
	CompareABC(ctx context.Context, periodDays int, tier model.Tier) (*engine.ABCComparison, error)
}

// ReplenishmentHandler serves the replenishment and ABC endpoints
type ReplenishmentHandler struct {
	pipeline Pipeline
	locker   runlock.Locker
}

// NewReplenishmentHandler creates a handler. A nil locker falls back to a
// process-local one.
func NewReplenishmentHandler(p Pipeline, locker runlock.Locker) *ReplenishmentHandler {
	if locker == nil {
		locker = runlock.NewLocalLocker()
	}
	return &ReplenishmentHandler{pipeline: p, locker: locker}
}

// Register mounts the routes on g
func (h *ReplenishmentHandler) Register(g *echo.Group) {
	g.POST("/replenishment/run", h.Run)
	g.GET("/replenishment/report.xlsx", h.ReportXLSX)
	g.GET("/abc", h.AnalyzeABC)
	g.GET("/abc/compare", h.CompareABC)
}

// Run executes the pipeline. dry_run defaults to true; a live run needs a
// role allowed to submit and holds the live-run lock while it executes.
func (h *ReplenishmentHandler) Run(c echo.Context) error {
	log := logger.FromEcho(c)

	dryRun := true
	if raw := c.QueryParam("dry_run"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "dry_run must be a boolean"})
		}
		dryRun = v
	}

	ctx := logger.WithContext(c.Request().Context(), log)

	if !dryRun {
		claims, ok := middleware.ClaimsFromContext(c)
		if !ok || !claims.CanSubmit() {
			log.Warn("Live run refused for role")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "role is not allowed to submit purchase orders"})
		}

		release, err := h.locker.Acquire(ctx, runlock.LiveRunKey)
		if err != nil {
			if errors.Is(err, runlock.ErrBusy) {
				log.Info("Live run already in progress")
				return c.JSON(http.StatusConflict, echo.Map{"error": "another live run is in progress"})
			}
			log.Error("Failed to acquire live run lock", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not acquire run lock"})
		}
		defer release()
		// a client disconnect must not stop submissions halfway
		ctx = context.WithoutCancel(ctx)
	}

	rep, err := h.pipeline.SuggestPurchases(ctx, dryRun)
	if err != nil {
		return pipelineError(c, log, err)
	}

	log.Info("Replenishment run finished",
		zap.String("run_id", rep.RunID),
		zap.Bool("dry_run", rep.DryRun),
		zap.Int("rows", len(rep.Rows)),
		zap.Int("failed_submissions", len(rep.Failed())))
	return c.JSON(http.StatusOK, rep)
}

// ReportXLSX runs a dry run and streams the report as a workbook
func (h *ReplenishmentHandler) ReportXLSX(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := logger.WithContext(c.Request().Context(), log)

	rep, err := h.pipeline.SuggestPurchases(ctx, true)
	if err != nil {
		return pipelineError(c, log, err)
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, rep); err != nil {
		log.Error("Failed to write xlsx report", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not build report"})
	}

	filename := fmt.Sprintf("replenishment-%s.xlsx", rep.GeneratedAt.Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// AnalyzeABC returns the tier classification for period_days, optionally
// filtered by tier
func (h *ReplenishmentHandler) AnalyzeABC(c echo.Context) error {
	log := logger.FromEcho(c)
	period, tier, err := abcParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	rep, err := h.pipeline.AnalyzeABC(c.Request().Context(), period, tier)
	if err != nil {
		log.Error("ABC analysis failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "abc analysis failed"})
	}
	return c.JSON(http.StatusOK, rep)
}

// CompareABC returns the tier migrations between the previous and current period
func (h *ReplenishmentHandler) CompareABC(c echo.Context) error {
	log := logger.FromEcho(c)
	period, tier, err := abcParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	cmp, err := h.pipeline.CompareABC(c.Request().Context(), period, tier)
	if err != nil {
		log.Error("ABC comparison failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "abc comparison failed"})
	}
	return c.JSON(http.StatusOK, cmp)
}

func abcParams(c echo.Context) (int, model.Tier, error) {
	var period int
	if raw := c.QueryParam("period_days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return 0, "", errors.New("period_days must be a positive integer")
		}
		period = v
	}

	var tier model.Tier
	if raw := c.QueryParam("tier"); raw != "" {
		t, ok := model.ParseTier(raw)
		if !ok {
			return 0, "", errors.New("tier must be one of A, B, C")
		}
		tier = t
	}
	return period, tier, nil
}

func pipelineError(c echo.Context, log *zap.Logger, err error) error {
	var unmapped *demand.UnmappedSKUError
	if errors.As(err, &unmapped) {
		log.Warn("Run rejected, unmapped sku", zap.String("sku", unmapped.SKU))
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error": err.Error(),
			"sku":   unmapped.SKU,
		})
	}
	log.Error("Replenishment run failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "replenishment run failed"})
}
