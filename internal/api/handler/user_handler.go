package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cirestech/usermgmt/internal/core/domain"
	"github.com/cirestech/usermgmt/internal/core/ports"
	"github.com/cirestech/usermgmt/internal/core/service"
)

const (
	defaultPageSize = 10
	exportFilename  = "users_export.csv"
	exportTimestamp = "2006-01-02 15:04:05"
)

var exportHeader = []string{
	"ID", "Username", "Email", "First Name", "Last Name", "Company", "Job Position",
	"City", "Country", "Mobile", "Role", "Status", "Created At", "Last Login",
}

// UserHandler serves the directory endpoints.
type UserHandler struct {
	service ports.UserService
	now     func() time.Time
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service, now: time.Now}
}

// currentUser loads the authenticated principal's record.
func (h *UserHandler) currentUser(c echo.Context) (*domain.User, error) {
	claims, err := ctxClaims(c)
	if err != nil {
		return nil, err
	}
	if claims.UserID != "" {
		return h.service.FindByID(c.Request().Context(), claims.UserID)
	}
	return h.service.FindByUsername(c.Request().Context(), claims.Subject)
}

// Me handles GET /api/users/me.
//
// @Summary      Current user profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// UpdateMe handles PUT /api/users/me.
//
// @Summary      Update own profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/users/me [put]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	return h.updateProfile(c, user.ID)
}

// ChangePassword handles PUT /api/users/me/password.
//
// @Summary      Change own password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/users/me/password [put]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	if err := h.service.ChangePassword(c.Request().Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Password changed successfully!"})
}

// List handles GET /api/users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page     query     int     false  "0-based page"            default(0)
// @Param        size     query     int     false  "Page size (max 100)"     default(10)
// @Param        sortBy   query     string  false  "Sort field"              default(username)
// @Param        sortDir  query     string  false  "asc or desc"             default(asc)
// @Param        search   query     string  false  "Case-insensitive filter"
// @Success      200      {object}  listUsersResponse
// @Failure      403      {object}  errorResponse
// @Failure      422      {object}  errorResponse
// @Router       /api/users [get]
func (h *UserHandler) List(c echo.Context) error {
	in := ports.ListUsersInput{Size: defaultPageSize, SortBy: string(domain.SortByUsername), SortDir: "asc"}
	err := echo.QueryParamsBinder(c).
		Int("page", &in.Page).
		Int("size", &in.Size).
		String("sortBy", &in.SortBy).
		String("sortDir", &in.SortDir).
		String("search", &in.Search).
		BindError()
	if err != nil {
		return domain.Invalid("page and size must be integers")
	}

	page, err := h.service.List(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listUsersResponse{
		Users:       toUserResponses(page.Users),
		CurrentPage: page.CurrentPage,
		TotalItems:  page.TotalItems,
		TotalPages:  page.TotalPages,
		Size:        page.PageSize,
	})
}

// GetByID handles GET /api/users/id/:id.
//
// @Summary      Get a user by id
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  userResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/users/id/{id} [get]
func (h *UserHandler) GetByID(c echo.Context) error {
	user, err := h.service.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// GetByUsername handles GET /api/users/:username. Callers may read their own
// record; admins may read any.
//
// @Summary      Get a user by username
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  userResponse
// @Failure      403       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Router       /api/users/{username} [get]
func (h *UserHandler) GetByUsername(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	username := c.Param("username")
	if err := service.AuthorizeSelfOrAdmin(claims, username); err != nil {
		return err
	}

	user, err := h.service.FindByUsername(c.Request().Context(), username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Update handles PUT /api/users/:id.
//
// @Summary      Update a user's profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "User id"
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	return h.updateProfile(c, c.Param("id"))
}

func (h *UserHandler) updateProfile(c echo.Context, id string) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.service.UpdateProfile(c.Request().Context(), id, toProfileUpdate(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Delete handles DELETE /api/users/:id.
//
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	user, err := h.service.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "User '" + user.Username + "' deleted successfully"})
}

// SetRole handles PATCH /api/users/:id/role?role=ROLE_ADMIN.
//
// @Summary      Change a user's role
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "User id"
// @Param        role  query     string  true  "ROLE_USER or ROLE_ADMIN"
// @Success      200   {object}  messageResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/users/{id}/role [patch]
func (h *UserHandler) SetRole(c echo.Context) error {
	role, ok := domain.ParseRole(c.QueryParam("role"))
	if !ok {
		return domain.Invalid("invalid role, use ROLE_USER or ROLE_ADMIN")
	}

	user, err := h.service.SetRole(c.Request().Context(), c.Param("id"), role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "User role updated to " + user.Role.String()})
}

// SetStatus handles PATCH /api/users/:id/status?enabled=true.
//
// @Summary      Enable or disable a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "User id"
// @Param        enabled  query     bool    true  "New status"
// @Success      200      {object}  messageResponse
// @Failure      403      {object}  errorResponse
// @Failure      404      {object}  errorResponse
// @Failure      422      {object}  errorResponse
// @Router       /api/users/{id}/status [patch]
func (h *UserHandler) SetStatus(c echo.Context) error {
	enabled, err := strconv.ParseBool(c.QueryParam("enabled"))
	if err != nil {
		return domain.Invalid("enabled must be true or false")
	}

	user, err := h.service.SetEnabled(c.Request().Context(), c.Param("id"), enabled)
	if err != nil {
		return err
	}
	status := "disabled"
	if user.Enabled {
		status = "enabled"
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "User '" + user.Username + "' has been " + status})
}

// Stats handles GET /api/stats/users.
//
// @Summary      Directory statistics
// @Tags         stats
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  statsResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/stats/users [get]
func (h *UserHandler) Stats(c echo.Context) error {
	stats, err := h.service.Stats(c.Request().Context(), h.now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statsResponse{
		TotalUsers:        stats.TotalUsers,
		TotalAdmins:       stats.TotalAdmins,
		TotalRegularUsers: stats.TotalRegularUsers,
		NewUsersToday:     stats.NewUsersToday,
	})
}

// Export handles GET /api/users/export/csv.
//
// @Summary      Export users as CSV
// @Tags         users
// @Produce      text/csv
// @Security     BearerAuth
// @Param        search  query     string  false  "Case-insensitive filter"
// @Success      200     {file}    file
// @Failure      403     {object}  errorResponse
// @Router       /api/users/export/csv [get]
func (h *UserHandler) Export(c echo.Context) error {
	users, err := h.service.Export(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(exportHeader)
	for _, u := range users {
		_ = w.Write(exportRow(u))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+exportFilename+`"`)
	return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
}

func exportRow(u *domain.User) []string {
	status := "Disabled"
	if u.Enabled {
		status = "Active"
	}
	created := ""
	if !u.CreatedAt.IsZero() {
		created = u.CreatedAt.UTC().Format(exportTimestamp)
	}
	lastLogin := "Never"
	if u.LastLogin != nil {
		lastLogin = u.LastLogin.UTC().Format(exportTimestamp)
	}
	return []string{
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.Company, u.JobPosition,
		u.City, u.Country, u.Mobile, u.Role.String(), status, created, lastLogin,
	}
}
