package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-programs/internal/model"
	"github.com/iliyamo/cinema-programs/internal/policy"
	"github.com/iliyamo/cinema-programs/internal/service"
)

// ScreeningHandler exposes the screening workflow. Mutations answer with the
// full view: only the submitter, the handler or a programmer can make them.
type ScreeningHandler struct {
	Screenings *service.ScreeningService
}

// NewScreeningHandler panics if screenings is nil.
func NewScreeningHandler(screenings *service.ScreeningService) *ScreeningHandler {
	if screenings == nil {
		panic("nil dependency passed to NewScreeningHandler")
	}
	return &ScreeningHandler{Screenings: screenings}
}

// List: GET /v1/programs/:id/screenings
func (h *ScreeningHandler) List(c echo.Context) error {
	programID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	list, err := h.Screenings.List(c.Request().Context(), programID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, screeningViews(list))
}

// Create: POST /v1/programs/:id/screenings
func (h *ScreeningHandler) Create(c echo.Context) error {
	programID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req filmReq
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	film, err := req.film()
	if err != nil {
		return err
	}
	sc, err := h.Screenings.Create(c.Request().Context(), programID, film)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, screeningDetails(sc))
}

// Search: POST /v1/programs/:id/screenings/search
func (h *ScreeningHandler) Search(c echo.Context) error {
	programID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req screeningSearchReq
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	criteria, err := req.criteria()
	if err != nil {
		return err
	}
	list, err := h.Screenings.Search(c.Request().Context(), programID, criteria)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, screeningViews(list))
}

// Get: GET /v1/screenings/:id
func (h *ScreeningHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	v, err := h.Screenings.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, screeningView(*v))
}

// Update: PUT /v1/screenings/:id
func (h *ScreeningHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req filmReq
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	film, err := req.film()
	if err != nil {
		return err
	}
	return h.respond(c)(h.Screenings.Update(c.Request().Context(), id, film))
}

// Withdraw: DELETE /v1/screenings/:id
func (h *ScreeningHandler) Withdraw(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Screenings.Withdraw(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Submit: POST /v1/screenings/:id/submit
func (h *ScreeningHandler) Submit(c echo.Context) error {
	return h.simple(c, h.Screenings.Submit)
}

// AssignHandler: POST /v1/screenings/:id/assign-handler with {"username"} or ?username=
func (h *ScreeningHandler) AssignHandler(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req assignReq
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	username := strings.TrimSpace(bodyOrQuery(c, req.Username, "username"))
	if username == "" {
		return badRequest("username is required")
	}
	return h.respond(c)(h.Screenings.AssignHandler(c.Request().Context(), id, username))
}

// Review: POST /v1/screenings/:id/review with {"score", "comments"}
func (h *ScreeningHandler) Review(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	if req.Score == nil {
		return badRequest("score is required")
	}
	return h.respond(c)(h.Screenings.Review(c.Request().Context(), id, *req.Score, req.Comments))
}

// Approve: POST /v1/screenings/:id/approve with {"notes"} or ?notes=
func (h *ScreeningHandler) Approve(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req notesReq
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	return h.respond(c)(h.Screenings.Approve(c.Request().Context(), id, bodyOrQuery(c, req.Notes, "notes")))
}

// Reject: POST /v1/screenings/:id/reject with {"reason"} or ?reason=
func (h *ScreeningHandler) Reject(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req reasonReq
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	return h.respond(c)(h.Screenings.Reject(c.Request().Context(), id, bodyOrQuery(c, req.Reason, "reason")))
}

// FinalSubmit: POST /v1/screenings/:id/final-submit
func (h *ScreeningHandler) FinalSubmit(c echo.Context) error {
	return h.simple(c, h.Screenings.FinalSubmit)
}

// Accept: POST /v1/screenings/:id/accept
func (h *ScreeningHandler) Accept(c echo.Context) error {
	return h.simple(c, h.Screenings.Accept)
}

func (h *ScreeningHandler) simple(c echo.Context, op func(ctx context.Context, id uint64) (*model.Screening, error)) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	return h.respond(c)(op(c.Request().Context(), id))
}

// respond adapts a (screening, error) pair into a full-view response.
func (h *ScreeningHandler) respond(c echo.Context) func(*model.Screening, error) error {
	return func(sc *model.Screening, err error) error {
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, screeningView(service.VisibleScreening{Screening: *sc, Access: policy.AccessFull}))
	}
}
