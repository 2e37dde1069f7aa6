package borrow

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/AyomideKayode/book-library-API/model"
	rs "github.com/AyomideKayode/book-library-API/service/borrow"
)

type Controller struct {
	Svc rs.Service
	V   *validator.Validate
	Log *slog.Logger
}

func httpStatus(code rs.ErrCode) int {
	switch code {
	case rs.ErrUserNotFound, rs.ErrBookNotFound, rs.ErrBorrowNotFound:
		return http.StatusNotFound
	case "":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func (h *Controller) fail(c echo.Context, op string, err error) error {
	code := rs.Code(err)
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

// POST /api/borrow
func (h *Controller) Borrow(c echo.Context) error {
	var req BorrowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid JSON", "code": "BAD_REQUEST"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": err.Error(), "code": "VALIDATION_ERROR"})
	}

	rec, err := h.Svc.Borrow(c.Request().Context(), req.UserID, req.BookID, req.DueDate)
	if err != nil {
		return h.fail(c, "borrow", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"data":    toResp(rec, time.Now()),
		"message": "Book borrowed successfully",
	})
}

// POST /api/return
func (h *Controller) Return(c echo.Context) error {
	var req ReturnReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid JSON", "code": "BAD_REQUEST"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": err.Error(), "code": "VALIDATION_ERROR"})
	}

	rec, err := h.Svc.Return(c.Request().Context(), req.BorrowID)
	if err != nil {
		return h.fail(c, "return", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    toResp(rec, time.Now()),
		"message": "Book returned successfully",
	})
}

// GET /api/borrow-records
func (h *Controller) List(c echo.Context) error {
	var f rs.ListFilter
	if v := c.QueryParam("userId"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.UserID = &id
		}
	}
	if v := c.QueryParam("bookId"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.BookID = &id
		}
	}
	if v := c.QueryParam("status"); v != "" {
		st := model.BorrowStatus(v)
		f.Status = &st
	}
	f.Sort = c.QueryParam("sort")
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	records, page, err := h.Svc.List(c.Request().Context(), f)
	if err != nil {
		return h.fail(c, "borrow list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"data":       toRespList(records, time.Now()),
		"pagination": page,
	})
}

// GET /api/borrow-records/:id
func (h *Controller) ByID(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid id", "code": "INVALID_ID"})
	}
	rec, err := h.Svc.ByID(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "borrow detail", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": toResp(rec, time.Now())})
}

// PUT /api/borrow-records/:id/extend
func (h *Controller) Extend(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid id", "code": "INVALID_ID"})
	}
	var req ExtendReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid JSON", "code": "BAD_REQUEST"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": err.Error(), "code": "VALIDATION_ERROR"})
	}

	rec, err := h.Svc.Extend(c.Request().Context(), id, req.NewDueDate)
	if err != nil {
		return h.fail(c, "extend", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    toResp(rec, time.Now()),
		"message": "Due date extended",
	})
}

// POST /api/borrow-records/:id/renew
func (h *Controller) Renew(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid id", "code": "INVALID_ID"})
	}
	rec, err := h.Svc.Renew(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "renew", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    toResp(rec, time.Now()),
		"message": "Borrow renewed",
	})
}

// POST /api/borrow-records/:id/lost
func (h *Controller) MarkLost(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid id", "code": "INVALID_ID"})
	}
	rec, err := h.Svc.MarkLost(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "mark lost", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    toResp(rec, time.Now()),
		"message": "Book marked as lost",
	})
}

// GET /api/borrow-records/overdue
func (h *Controller) Overdue(c echo.Context) error {
	records, err := h.Svc.Overdue(c.Request().Context())
	if err != nil {
		return h.fail(c, "overdue", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": toRespList(records, time.Now())})
}

// GET /api/borrow-records/due-soon
func (h *Controller) DueSoon(c echo.Context) error {
	days, _ := strconv.Atoi(c.QueryParam("days"))
	records, err := h.Svc.DueSoon(c.Request().Context(), days)
	if err != nil {
		return h.fail(c, "due soon", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": toRespList(records, time.Now())})
}

// GET /api/borrow-records/stats
func (h *Controller) Stats(c echo.Context) error {
	st, err := h.Svc.Stats(c.Request().Context())
	if err != nil {
		return h.fail(c, "stats", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": st})
}
