package note

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/records/pkg/result"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:id/notes", h.ListByPatient)
	api.POST("/patients/:id/notes", h.Create)
	api.PUT("/notes/:id", h.Update)
	api.DELETE("/notes/:id", h.Delete)
}

func invalid(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, result.Fail[any](result.FaultInvalid, msg))
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalid(c, "invalid patient id")
	}
	res := h.svc.GetByPatientID(c.Request().Context(), patientID)
	return c.JSON(res.Status(http.StatusOK), res)
}

// Create attaches a note to the patient in the path. A missing note_date
// defaults to the time of the request.
func (h *Handler) Create(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalid(c, "invalid patient id")
	}
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return invalid(c, "invalid request body")
	}
	in.PatientID = patientID
	if in.NoteDate.IsZero() {
		in.NoteDate = time.Now().UTC()
	}
	if err := in.Validate(); err != nil {
		return invalid(c, err.Error())
	}
	res := h.svc.Create(c.Request().Context(), &in)
	return c.JSON(res.Status(http.StatusCreated), res)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalid(c, "invalid id")
	}
	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return invalid(c, "invalid request body")
	}
	if err := in.Validate(); err != nil {
		return invalid(c, err.Error())
	}
	res := h.svc.Update(c.Request().Context(), id, &in)
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
