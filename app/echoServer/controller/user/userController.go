package user

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/AyomideKayode/book-library-API/model"
	rs "github.com/AyomideKayode/book-library-API/service/borrow"
	usersvc "github.com/AyomideKayode/book-library-API/service/user"
)

type Controller struct {
	Svc     usersvc.Service
	Borrows rs.Service
	V       *validator.Validate
	Log     *slog.Logger
}

func httpStatus(code usersvc.ErrCode) int {
	switch code {
	case usersvc.ErrNotFound:
		return http.StatusNotFound
	case usersvc.ErrEmailTaken:
		return http.StatusConflict
	case "":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func (h *Controller) fail(c echo.Context, op string, err error) error {
	code := usersvc.Code(err)
	if code == "" {
		h.Log.Error(op, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false, "error": "internal error", "code": "INTERNAL",
		})
	}
	return c.JSON(httpStatus(code), echo.Map{
		"success": false, "error": err.Error(), "code": string(code),
	})
}

// POST /api/users
func (h *Controller) Create(c echo.Context) error {
	var req UserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid JSON", "code": "BAD_REQUEST"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": err.Error(), "code": "VALIDATION_ERROR"})
	}

	u := req.toModel()
	if err := h.Svc.Create(c.Request().Context(), u); err != nil {
		return h.fail(c, "user create", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"data":    u,
		"message": "User registered successfully",
	})
}

// GET /api/users
func (h *Controller) List(c echo.Context) error {
	var f usersvc.Filter
	f.Q = c.QueryParam("q")
	if v := c.QueryParam("status"); v != "" {
		st := model.UserStatus(v)
		f.Status = &st
	}
	f.Sort = c.QueryParam("sort")
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	users, page, err := h.Svc.List(c.Request().Context(), f)
	if err != nil {
		return h.fail(c, "user list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"data":       users,
		"pagination": page,
	})
}

// GET /api/users/:id
func (h *Controller) ByID(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid id", "code": "INVALID_ID"})
	}
	u, err := h.Svc.ByID(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "user detail", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": u})
}

// GET /api/users/:id/borrows
func (h *Controller) ListBorrows(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid id", "code": "INVALID_ID"})
	}
	if _, err := h.Svc.ByID(c.Request().Context(), id); err != nil {
		return h.fail(c, "user detail", err)
	}

	records, err := h.Borrows.UserHistory(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("user borrows", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false, "error": "internal error", "code": "INTERNAL",
		})
	}
	now := time.Now()
	out := make([]echo.Map, 0, len(records))
	for i := range records {
		r := &records[i]
		out = append(out, echo.Map{
			"record":          r,
			"days_borrowed":   r.DaysBorrowed(now),
			"days_overdue":    r.DaysOverdue(now),
			"calculated_fine": r.CalculatedFine(now),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": out})
}

// PUT /api/users/:id
func (h *Controller) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid id", "code": "INVALID_ID"})
	}
	var req UserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid JSON", "code": "BAD_REQUEST"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": err.Error(), "code": "VALIDATION_ERROR"})
	}

	u := req.toModel()
	u.ID = id
	if err := h.Svc.Update(c.Request().Context(), u); err != nil {
		return h.fail(c, "user update", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    u,
		"message": "User updated successfully",
	})
}

// DELETE /api/users/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid id", "code": "INVALID_ID"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, "user delete", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "User deleted successfully",
	})
}
