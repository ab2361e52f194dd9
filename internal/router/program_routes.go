package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-programs/internal/handler"
	"github.com/iliyamo/cinema-programs/internal/middleware"
)

// RegisterPrograms registers the program and screening workflow. Every
// route runs with the optional identity middleware; anonymous callers act
// as the visitor.
func RegisterPrograms(e *echo.Echo, p *handler.ProgramHandler, s *handler.ScreeningHandler, jwtSecret string, limits Limits) {
	v1 := e.Group("/v1", middleware.Identity(jwtSecret))
	search := limits.Config.Search
	submit := limits.Config.Submit

	// ---- Programs ----
	v1.GET("/programs", p.List)
	v1.POST("/programs", p.Create)
	v1.POST("/programs/search", p.Search, limits.guard(ProgramSearchLimit, search))
	v1.GET("/programs/:id", p.Get)
	v1.PUT("/programs/:id", p.Update)
	v1.DELETE("/programs/:id", p.Delete)
	v1.POST("/programs/:id/programmers/:username", p.AddProgrammer)
	v1.POST("/programs/:id/staff/:username", p.AddStaff)
	v1.POST("/programs/:id/state", p.ChangeState)

	// ---- Screenings of a program ----
	v1.GET("/programs/:id/screenings", s.List)
	v1.POST("/programs/:id/screenings", s.Create)
	v1.POST("/programs/:id/screenings/search", s.Search, limits.guard(ScreeningSearchLimit, search))

	// ---- Screenings ----
	v1.GET("/screenings/:id", s.Get)
	v1.PUT("/screenings/:id", s.Update)
	v1.DELETE("/screenings/:id", s.Withdraw)
	v1.POST("/screenings/:id/submit", s.Submit, limits.guard(ScreeningSubmitLimit, submit))
	v1.POST("/screenings/:id/assign-handler", s.AssignHandler)
	v1.POST("/screenings/:id/review", s.Review)
	v1.POST("/screenings/:id/approve", s.Approve)
	v1.POST("/screenings/:id/reject", s.Reject)
	v1.POST("/screenings/:id/final-submit", s.FinalSubmit, limits.guard(ScreeningFinalSubmitLimit, submit))
	v1.POST("/screenings/:id/accept", s.Accept)
}

