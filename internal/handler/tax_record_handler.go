package handler

import (
	"errors"
	"net/http"
	"strconv"

	"taxtrack/internal/apperr"
	"taxtrack/internal/middleware"
	"taxtrack/internal/model"
	"taxtrack/internal/service"
	"taxtrack/pkg/pagination"
	"taxtrack/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TaxRecordHandler struct {
	taxService     service.TaxRecordService
	summaryService service.SummaryService
}

func NewTaxRecordHandler(taxService service.TaxRecordService, summaryService service.SummaryService) *TaxRecordHandler {
	return &TaxRecordHandler{
		taxService:     taxService,
		summaryService: summaryService,
	}
}

func (h *TaxRecordHandler) RegisterRoutes(router *gin.RouterGroup) {
	records := router.Group("/api/tax-records")
	records.Use(middleware.AnyActor())
	{
		records.GET("", h.ListRecords)
		records.GET("/:id", h.GetRecord)
		records.GET("/:id/allowed-statuses", h.GetAllowedStatuses)
		records.GET("/key/:build/:year/:month", h.GetRecordByKey)
		records.PATCH("/:id", h.SaveRecord)
	}

	summary := router.Group("/api/tax-summary")
	summary.Use(middleware.AnyActor())
	{
		summary.GET("", h.GetSummary)
	}
}

// GetRecord returns one monthly tax record with derived effective statuses
// @Summary      Get tax record
// @Description  Retrieves a monthly tax record by id, including derived WHT/VAT effective statuses
// @Tags         tax-records
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Record ID"
// @Success      200  {object}  response.Response{data=service.TaxRecordResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/tax-records/{id} [get]
func (h *TaxRecordHandler) GetRecord(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid record id"))
		return
	}

	rec, err := h.taxService.GetRecord(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rec))
}

// GetRecordByKey returns one record by its natural (build, year, month) key
// @Summary      Get tax record by key
// @Description  Retrieves a monthly tax record by build, tax year and tax month
// @Tags         tax-records
// @Security     BearerAuth
// @Produce      json
// @Param        build  path      string  true  "Build (company key)"
// @Param        year   path      int     true  "Tax year"
// @Param        month  path      int     true  "Tax month"
// @Success      200    {object}  response.Response{data=service.TaxRecordResponse}
// @Failure      404    {object}  response.Response
// @Router       /api/tax-records/key/{build}/{year}/{month} [get]
func (h *TaxRecordHandler) GetRecordByKey(c *gin.Context) {
	year, _ := strconv.Atoi(c.Param("year"))
	month, _ := strconv.Atoi(c.Param("month"))
	key := model.RecordKey{Build: c.Param("build"), TaxYear: year, TaxMonth: month}

	rec, err := h.taxService.GetRecordByKey(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rec))
}

// ListRecords returns a paginated, filtered list of monthly tax records
// @Summary      List tax records
// @Description  Retrieves a paginated list of records, filtered by build, period, obligation status or assignment
// @Tags         tax-records
// @Security     BearerAuth
// @Produce      json
// @Param        build       query     string  false  "Filter by build"
// @Param        tax_year    query     int     false  "Filter by tax year"
// @Param        tax_month   query     int     false  "Filter by tax month"
// @Param        obligation  query     string  false  "Obligation for the status filter (wht, vat)"
// @Param        status      query     string  false  "Filter by stored obligation status"
// @Param        mine        query     bool    false  "Restrict to records assigned to the caller"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Number of items per page (default 20)"
// @Param        sort        query     string  false  "Sort key (build, company, period, updated_at)"
// @Success      200         {object}  response.Response{data=object}
// @Router       /api/tax-records [get]
func (h *TaxRecordHandler) ListRecords(c *gin.Context) {
	employeeID, actor := middleware.Identity(c)
	params := pagination.Parse(c)
	taxYear, _ := strconv.Atoi(c.Query("tax_year"))
	taxMonth, _ := strconv.Atoi(c.Query("tax_month"))

	filter := service.ListTaxRecordsFilter{
		Build:      c.Query("build"),
		TaxYear:    taxYear,
		TaxMonth:   taxMonth,
		Obligation: model.Obligation(c.Query("obligation")),
		Status:     model.Status(c.Query("status")),
		Mine:       c.Query("mine") == "true",
		Page:       params.Page,
		Limit:      params.Limit,
		Sort:       params.Sort,
	}

	records, total, err := h.taxService.ListRecords(c.Request.Context(), actor, employeeID, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"records": records,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	}))
}

// GetAllowedStatuses returns the status picker options for the caller
// @Summary      Get allowed statuses
// @Description  Returns the full status enum for a record, selectable options first, per the caller's actor context
// @Tags         tax-records
// @Security     BearerAuth
// @Produce      json
// @Param        id          path      string  true   "Record ID"
// @Param        obligation  query     string  false  "Obligation (wht, vat; default wht)"
// @Param        sub_form    query     string  false  "WHT sub-form key for sub-form pickers"
// @Success      200         {object}  response.Response{data=object}
// @Router       /api/tax-records/{id}/allowed-statuses [get]
func (h *TaxRecordHandler) GetAllowedStatuses(c *gin.Context) {
	_, actor := middleware.Identity(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid record id"))
		return
	}

	obligation := model.Obligation(c.DefaultQuery("obligation", string(model.ObligationWHT)))
	subForm := model.SubFormKey(c.Query("sub_form"))

	options, err := h.taxService.AllowedStatuses(c.Request.Context(), id, actor, obligation, subForm)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"options": options,
	}))
}

// SaveRecord applies one tab-scoped partial save
// @Summary      Save tax record
// @Description  Applies a tab-scoped save: permission gate, preparer validation and timestamp side effects run server-side
// @Tags         tax-records
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Record ID"
// @Param        payload  body      service.SaveRecordRequest  true  "Save payload"
// @Success      200      {object}  response.Response{data=service.TaxRecordResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/tax-records/{id} [patch]
func (h *TaxRecordHandler) SaveRecord(c *gin.Context) {
	employeeID, actor := middleware.Identity(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid record id"))
		return
	}

	var req service.SaveRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rec, err := h.taxService.Save(c.Request.Context(), actor, employeeID, id, req)
	if err != nil {
		var validation *apperr.ValidationError
		if errors.As(err, &validation) {
			if len(validation.Fields) == 0 {
				// Permission mismatches carry no field list.
				c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, validation.Error()))
				return
			}
			c.JSON(http.StatusBadRequest, response.Invalid(http.StatusBadRequest, validation.Error(), validation.Fields))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rec))
}

// GetSummary returns per-status record counts for one period
// @Summary      Get monthly summary
// @Description  Buckets a period's records by derived effective status for both obligations
// @Tags         tax-summary
// @Security     BearerAuth
// @Produce      json
// @Param        tax_year   query     int  true  "Tax year"
// @Param        tax_month  query     int  true  "Tax month"
// @Success      200        {object}  response.Response{data=service.SummaryResponse}
// @Router       /api/tax-summary [get]
func (h *TaxRecordHandler) GetSummary(c *gin.Context) {
	taxYear, _ := strconv.Atoi(c.Query("tax_year"))
	taxMonth, _ := strconv.Atoi(c.Query("tax_month"))
	if taxYear == 0 || taxMonth == 0 {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "tax_year and tax_month are required"))
		return
	}

	summary, err := h.summaryService.GetSummary(c.Request.Context(), taxYear, taxMonth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}
