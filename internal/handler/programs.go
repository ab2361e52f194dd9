package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-programs/internal/model"
	"github.com/iliyamo/cinema-programs/internal/service"
)

// ProgramHandler exposes the program workflow.
type ProgramHandler struct {
	Programs *service.ProgramService
	Identity service.CurrentUser
}

// NewProgramHandler panics if a dependency is nil.
func NewProgramHandler(programs *service.ProgramService, identity service.CurrentUser) *ProgramHandler {
	if programs == nil || identity == nil {
		panic("nil dependency passed to NewProgramHandler")
	}
	return &ProgramHandler{Programs: programs, Identity: identity}
}

// List: GET /v1/programs
func (h *ProgramHandler) List(c echo.Context) error {
	list, err := h.Programs.List(c.Request().Context())
	if err != nil {
		return err
	}
	return h.respondList(c, list)
}

// Create: POST /v1/programs
func (h *ProgramHandler) Create(c echo.Context) error {
	var req programReq
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	in, err := req.input()
	if err != nil {
		return err
	}
	p, err := h.Programs.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusCreated, p)
}

// Search: POST /v1/programs/search
func (h *ProgramHandler) Search(c echo.Context) error {
	var req programSearchReq
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	criteria := service.ProgramCriteria{Name: req.Name}
	if s := strings.TrimSpace(req.State); s != "" {
		criteria.State = model.ProgramState(strings.ToUpper(s))
	}
	list, err := h.Programs.Search(c.Request().Context(), criteria)
	if err != nil {
		return err
	}
	return h.respondList(c, list)
}

// Get: GET /v1/programs/:id
func (h *ProgramHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.Programs.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusOK, p)
}

// Update: PUT /v1/programs/:id
func (h *ProgramHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req programReq
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	in, err := req.input()
	if err != nil {
		return err
	}
	p, err := h.Programs.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusOK, p)
}

// Delete: DELETE /v1/programs/:id
func (h *ProgramHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Programs.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AddProgrammer: POST /v1/programs/:id/programmers/:username
func (h *ProgramHandler) AddProgrammer(c echo.Context) error {
	return h.addMember(c, h.Programs.AddProgrammer)
}

// AddStaff: POST /v1/programs/:id/staff/:username
func (h *ProgramHandler) AddStaff(c echo.Context) error {
	return h.addMember(c, h.Programs.AddStaff)
}

func (h *ProgramHandler) addMember(c echo.Context, add func(ctx context.Context, id uint64, username string) (*model.Program, error)) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		return badRequest("username is required")
	}
	p, err := add(c.Request().Context(), id, username)
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusOK, p)
}

// ChangeState: POST /v1/programs/:id/state with {"state": ...} or ?newState=
func (h *ProgramHandler) ChangeState(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req stateReq
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid body")
	}
	state, ok := model.ParseProgramState(bodyOrQuery(c, req.State, "newState"))
	if !ok {
		return badRequest("unknown program state")
	}
	p, err := h.Programs.ChangeState(c.Request().Context(), id, state)
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusOK, p)
}

func (h *ProgramHandler) respond(c echo.Context, status int, p *model.Program) error {
	u, err := h.Identity.CurrentUser(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(status, programView(u, p))
}

func (h *ProgramHandler) respondList(c echo.Context, list []model.Program) error {
	u, err := h.Identity.CurrentUser(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, programViews(u, list))
}
