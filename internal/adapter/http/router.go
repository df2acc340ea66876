package http

import (
	"github.com/labstack/echo/v4"
)

// Register mounts the approval routes. auth guards every approval route;
// mutating carries the extra middleware for POST/PUT routes (idempotency).
func Register(e *echo.Echo, health *Handler, approvals *ApprovalHandler, auth echo.MiddlewareFunc, mutating ...echo.MiddlewareFunc) {
	e.GET("/health", health.Health)

	g := e.Group("/approvals", auth)
	g.GET("/inbox", approvals.Inbox)
	g.GET("/:request_id", approvals.GetStatus)
	g.GET("/:request_id/history", approvals.History)

	g.POST("", approvals.Submit, mutating...)
	g.POST("/:request_id/lines", approvals.AppendLine, mutating...)
	g.PUT("/lines/:line_id/approve", approvals.Approve, mutating...)
	g.PUT("/lines/:line_id/reject", approvals.Reject, mutating...)
}
