package httphandler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/lllypuk/userlist/internal/domain/errs"
	"github.com/lllypuk/userlist/internal/domain/user"
	"github.com/lllypuk/userlist/internal/infrastructure/httpserver"
	"github.com/lllypuk/userlist/internal/middleware"
	"github.com/lllypuk/userlist/internal/userlist"
)

// UserList defines the controller operations the handler dispatches to.
// Declared on the consumer side.
type UserList interface {
	State() userlist.State
	Add(name string) (user.Record, error)
	Update(target user.Record, name string) (user.Record, error)
	Delete(target user.Record) error
}

// IntentRequest is the body of add and update intents. It binds from both
// HTML forms and JSON.
type IntentRequest struct {
	Name string `json:"name" form:"name"`
}

// IntentResponse is returned to JSON clients after an intent is dispatched.
// State is the optimistic state; the outcome arrives later over /ws or
// /api/v1/state.
type IntentResponse struct {
	User  *user.Record   `json:"user,omitempty"`
	State userlist.State `json:"state"`
}

// PageData is passed to users.html.
type PageData struct {
	Title        string
	State        userlist.State
	DefaultName  string
	UpdateMarker string
}

// UserListHandler serves the user list page and its intents.
type UserListHandler struct {
	list   UserList
	title  string
	logger *slog.Logger
}

// NewUserListHandler creates a new UserListHandler.
func NewUserListHandler(list UserList, title string, logger *slog.Logger) *UserListHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserListHandler{
		list:   list,
		title:  title,
		logger: logger,
	}
}

// RegisterRoutes registers the page, state and intent routes.
func (h *UserListHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
	e.GET("/api/v1/state", h.GetState)

	e.POST("/users", h.Add)
	e.POST("/users/:id/update", h.Update)
	e.POST("/users/:id/delete", h.Delete)
}

// Index handles GET /.
func (h *UserListHandler) Index(c echo.Context) error {
	return c.Render(http.StatusOK, "users.html", PageData{
		Title:        h.title,
		State:        h.list.State(),
		DefaultName:  user.DefaultName,
		UpdateMarker: user.UpdateMarker,
	})
}

// GetState handles GET /api/v1/state.
func (h *UserListHandler) GetState(c echo.Context) error {
	return httpserver.RespondOK(c, h.list.State())
}

// Add handles POST /users.
func (h *UserListHandler) Add(c echo.Context) error {
	var req IntentRequest
	if err := c.Bind(&req); err != nil {
		return h.respondError(c, errs.ErrInvalidInput)
	}

	rec, err := h.list.Add(req.Name)
	if err != nil {
		return h.respondError(c, err)
	}

	middleware.Logger(c).Debug("add dispatched", slog.String("name", rec.Name))
	return h.respondDispatched(c, &rec)
}

// Update handles POST /users/:id/update.
func (h *UserListHandler) Update(c echo.Context) error {
	target, err := h.target(c)
	if err != nil {
		return h.respondError(c, err)
	}

	var req IntentRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return h.respondError(c, errs.ErrInvalidInput)
	}

	updated, err := h.list.Update(target, req.Name)
	if err != nil {
		return h.respondError(c, err)
	}

	middleware.Logger(c).Debug("update dispatched",
		slog.Int("id", updated.ID),
		slog.String("name", updated.Name))
	return h.respondDispatched(c, &updated)
}

// Delete handles POST /users/:id/delete.
func (h *UserListHandler) Delete(c echo.Context) error {
	target, err := h.target(c)
	if err != nil {
		return h.respondError(c, err)
	}

	if err = h.list.Delete(target); err != nil {
		return h.respondError(c, err)
	}

	middleware.Logger(c).Debug("delete dispatched", slog.Int("id", target.ID))
	return h.respondDispatched(c, nil)
}

// target resolves the :id parameter against the current list.
func (h *UserListHandler) target(c echo.Context) (user.Record, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= user.UnsavedID {
		return user.Record{}, errs.ErrInvalidInput
	}

	rec, ok := user.Find(h.list.State().Users, id)
	if !ok {
		return user.Record{}, errs.ErrNotFound
	}
	return rec, nil
}

func (h *UserListHandler) respondDispatched(c echo.Context, rec *user.Record) error {
	if !wantsJSON(c) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return httpserver.RespondAccepted(c, IntentResponse{
		User:  rec,
		State: h.list.State(),
	})
}

func (h *UserListHandler) respondError(c echo.Context, err error) error {
	if wantsJSON(c) {
		return httpserver.RespondError(c, err)
	}
	return c.String(httpserver.StatusCode(err), err.Error())
}

func wantsJSON(c echo.Context) bool {
	req := c.Request()
	return strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) ||
		strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}
