package patient

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/records/pkg/pagination"
	"github.com/ehr/records/pkg/result"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the patient endpoints on a session-guarded group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients", h.Search)
	api.GET("/patients/recent", h.Recent)
	api.GET("/patients/exists", h.Exists)
	api.GET("/patients/:id", h.Get)
	api.POST("/patients", h.Create)
	api.PUT("/patients/:id", h.Update)
	api.DELETE("/patients/:id", h.Delete)
}

func invalid(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, result.Fail[any](result.FaultInvalid, msg))
}

// FiltersFromQuery reads the search filters from query parameters.
func FiltersFromQuery(c echo.Context) (SearchFilters, error) {
	f := SearchFilters{
		LastName:    c.QueryParam("lastName"),
		FirstName:   c.QueryParam("firstName"),
		PhoneNumber: c.QueryParam("phoneNumber"),
	}
	if v := c.QueryParam("patientNumber"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return f, fmt.Errorf("patientNumber must be a positive integer")
		}
		f.PatientNumber = n
	}
	if v := c.QueryParam("dateOfBirth"); v != "" {
		d, err := ParseDate(v)
		if err != nil {
			return f, err
		}
		f.DateOfBirth = d
	}
	return f, nil
}

func (h *Handler) Search(c echo.Context) error {
	f, err := FiltersFromQuery(c)
	if err != nil {
		return invalid(c, err.Error())
	}
	res := h.svc.Search(c.Request().Context(), f)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) Recent(c echo.Context) error {
	limit := pagination.Limit(c, DefaultRecentLimit)
	res := h.svc.GetRecent(c.Request().Context(), limit)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) Exists(c echo.Context) error {
	nationalID := c.QueryParam("national_id")
	if nationalID == "" {
		return invalid(c, "national_id is required")
	}
	res := h.svc.ExistsByNationalID(c.Request().Context(), nationalID)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalid(c, "invalid id")
	}
	res := h.svc.GetByID(c.Request().Context(), id)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) Create(c echo.Context) error {
	var form FormData
	if err := c.Bind(&form); err != nil {
		return invalid(c, "invalid request body")
	}
	if err := form.Validate(); err != nil {
		return invalid(c, err.Error())
	}
	res := h.svc.Create(c.Request().Context(), &form)
	return c.JSON(res.Status(http.StatusCreated), res)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalid(c, "invalid id")
	}
	var form FormData
	if err := c.Bind(&form); err != nil {
		return invalid(c, "invalid request body")
	}
	if err := form.Validate(); err != nil {
		return invalid(c, err.Error())
	}
	res := h.svc.Update(c.Request().Context(), id, &form)
	return c.JSON(res.Status(http.StatusOK), res)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalid(c, "invalid id")
	}
	res := h.svc.SoftDelete(c.Request().Context(), id)
	return c.JSON(res.Status(http.StatusOK), res)
}
