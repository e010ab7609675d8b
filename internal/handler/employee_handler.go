package handler

import (
	"net/http"

	"taxtrack/internal/middleware"
	"taxtrack/internal/service"
	"taxtrack/pkg/pagination"
	"taxtrack/pkg/response"

	"github.com/gin-gonic/gin"
)

type EmployeeHandler struct {
	employeeService service.EmployeeService
}

func NewEmployeeHandler(employeeService service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employeeService: employeeService}
}

func (h *EmployeeHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/employees")
	group.Use(middleware.AnyActor())
	{
		group.GET("", h.ListEmployees)
	}
}

// ListEmployees returns the staff directory used by the assignment pickers
// @Summary      List employees
// @Tags         employees
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/employees [get]
func (h *EmployeeHandler) ListEmployees(c *gin.Context) {
	params := pagination.Parse(c)

	employees, total, err := h.employeeService.ListEmployees(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"employees": employees,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}
