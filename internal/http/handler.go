package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/revenue-engine/internal/http/middleware"
	"github.com/nurpe/revenue-engine/internal/model"
	"github.com/nurpe/revenue-engine/internal/service"
)

// StatementGenerator renders a commission summary as a downloadable document.
type StatementGenerator interface {
	Generate(summary *service.CommissionSummary, title string) ([]byte, error)
}

type Handler struct {
	schedules   *service.ScheduleService
	commissions *service.CommissionService
	rules       *service.RuleService
	excel       StatementGenerator
	pdf         StatementGenerator
	log         zerolog.Logger
}

func NewHandler(
	schedules *service.ScheduleService,
	commissions *service.CommissionService,
	rules *service.RuleService,
	excel StatementGenerator,
	pdf StatementGenerator,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		schedules:   schedules,
		commissions: commissions,
		rules:       rules,
		excel:       excel,
		pdf:         pdf,
		log:         log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/contracts/:id/schedule", h.generateSchedule)
	protected.POST("/contracts/:id/extend-schedule", h.extendSchedule)
	protected.POST("/contracts/extend-all", h.extendAll)
	protected.POST("/contracts/:id/process-commissions", h.processContract)

	protected.GET("/commissions", h.listCommissions)
	protected.GET("/commissions/summary", h.commissionSummary)
	protected.GET("/commissions/summary/export", h.exportSummary)
	protected.POST("/commissions/:id/mark-paid", h.markCommissionPaid)
	protected.POST("/revenue-schedule/:id/mark-paid", h.markSchedulePaid)

	protected.GET("/commission-rules", h.listRules)
	protected.POST("/commission-rules", h.createRule)
	protected.POST("/commission-rules/seed", h.seedRules)
}

func (h *Handler) generateSchedule(c *gin.Context) {
	contractID, ok := h.pathID(c)
	if !ok {
		return
	}
	entries, err := h.schedules.Generate(c.Request.Context(), contractID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": entries})
}

type extendRequest struct {
	MonthsAhead int `json:"monthsAhead"`
}

func (h *Handler) extendSchedule(c *gin.Context) {
	contractID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req extendRequest
	_ = c.ShouldBindJSON(&req)
	entries, err := h.schedules.Extend(c.Request.Context(), contractID, req.MonthsAhead)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": entries})
}

func (h *Handler) extendAll(c *gin.Context) {
	var req extendRequest
	_ = c.ShouldBindJSON(&req)
	result, err := h.schedules.ExtendAllActive(c.Request.Context(), req.MonthsAhead)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type processRequest struct {
	SalesUserID string `json:"salesUserId"`
}

func (h *Handler) processContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	contractID, ok := h.pathID(c)
	if !ok {
		return
	}

	var req processRequest
	_ = c.ShouldBindJSON(&req)

	// The caller is the salesperson unless the request names one.
	salesUserID := principal.UserID
	if req.SalesUserID != "" {
		parsed, err := uuid.Parse(strings.TrimSpace(req.SalesUserID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid salesUserId"})
			return
		}
		salesUserID = parsed
	}

	processed, err := h.commissions.ProcessContract(c.Request.Context(), contractID, &salesUserID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"processed": processed})
}

func (h *Handler) listCommissions(c *gin.Context) {
	filter, ok := h.summaryFilter(c)
	if !ok {
		return
	}
	commissions, err := h.commissions.List(c.Request.Context(), filter.PartnerID, filter.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"commissions": commissions})
}

func (h *Handler) commissionSummary(c *gin.Context) {
	filter, ok := h.summaryFilter(c)
	if !ok {
		return
	}
	summary, err := h.commissions.Summary(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) exportSummary(c *gin.Context) {
	filter, ok := h.summaryFilter(c)
	if !ok {
		return
	}
	summary, err := h.commissions.Summary(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	title := statementTitle(filter)
	switch strings.ToLower(c.DefaultQuery("format", "xlsx")) {
	case "xlsx":
		content, err := h.excel.Generate(summary, title)
		if err != nil {
			h.handleError(c, err)
			return
		}
		fileName := statementFileName(filter, "xlsx")
		c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
	case "pdf":
		content, err := h.pdf.Generate(summary, title)
		if err != nil {
			h.handleError(c, err)
			return
		}
		fileName := statementFileName(filter, "pdf")
		c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
		c.Data(http.StatusOK, "application/pdf", content)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid format"})
	}
}

func (h *Handler) markCommissionPaid(c *gin.Context) {
	commissionID, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.commissions.MarkPaid(c.Request.Context(), commissionID); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type markSchedulePaidRequest struct {
	InvoiceNumber string `json:"invoiceNumber"`
}

func (h *Handler) markSchedulePaid(c *gin.Context) {
	entryID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req markSchedulePaidRequest
	_ = c.ShouldBindJSON(&req)

	var invoiceNumber *string
	if req.InvoiceNumber != "" {
		invoiceNumber = &req.InvoiceNumber
	}
	if err := h.schedules.MarkPaid(c.Request.Context(), entryID, invoiceNumber); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) listRules(c *gin.Context) {
	rules, err := h.rules.ListActive(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

type createRuleRequest struct {
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	RevenueType     string `json:"revenueType" binding:"required"`
	SaleScenario    string `json:"saleScenario" binding:"required"`
	Role            string `json:"role" binding:"required"`
	MonthRangeStart *int   `json:"monthRangeStart"`
	MonthRangeEnd   *int   `json:"monthRangeEnd"`
	Percentage      int    `json:"percentage" binding:"required"`
	IsActive        *bool  `json:"isActive"`
}

func (h *Handler) createRule(c *gin.Context) {
	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule := model.CommissionRule{
		Name:            req.Name,
		Description:     req.Description,
		RevenueType:     model.RevenueType(req.RevenueType),
		SaleScenario:    model.SaleScenario(req.SaleScenario),
		Role:            model.CommissionRole(req.Role),
		MonthRangeStart: req.MonthRangeStart,
		MonthRangeEnd:   req.MonthRangeEnd,
		Percentage:      req.Percentage,
		IsActive:        true,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if err := h.rules.Create(c.Request.Context(), &rule); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (h *Handler) seedRules(c *gin.Context) {
	if err := h.rules.SeedDefaults(c.Request.Context()); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) summaryFilter(c *gin.Context) (service.SummaryFilter, bool) {
	var filter service.SummaryFilter

	if raw := c.Query("partnerId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid partnerId"})
			return filter, false
		}
		filter.PartnerID = &id
	}
	if raw := c.Query("userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userId"})
			return filter, false
		}
		filter.UserID = &id
	}
	if raw := c.Query("startDate"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid startDate"})
			return filter, false
		}
		filter.StartDate = &parsed
	}
	if raw := c.Query("endDate"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid endDate"})
			return filter, false
		}
		filter.EndDate = &parsed
	}
	return filter, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func statementTitle(filter service.SummaryFilter) string {
	switch {
	case filter.PartnerID != nil:
		return "Commission statement for partner " + filter.PartnerID.String()
	case filter.UserID != nil:
		return "Commission statement for user " + filter.UserID.String()
	default:
		return "Commission statement"
	}
}

func statementFileName(filter service.SummaryFilter, ext string) string {
	owner := "all"
	if filter.PartnerID != nil {
		owner = filter.PartnerID.String()
	} else if filter.UserID != nil {
		owner = filter.UserID.String()
	}
	return fmt.Sprintf("commissions-%s.%s", owner, ext)
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
