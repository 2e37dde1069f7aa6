package book

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	booksvc "github.com/AyomideKayode/book-library-API/service/book"
	rs "github.com/AyomideKayode/book-library-API/service/borrow"
)

type Controller struct {
	Svc     booksvc.Service
	Borrows rs.Service
	V       *validator.Validate
	Log     *slog.Logger
}

func httpStatus(code booksvc.ErrCode) int {
	switch code {
	case booksvc.ErrNotFound, booksvc.ErrAuthorNotFound:
		return http.StatusNotFound
	case booksvc.ErrISBNTaken:
		return http.StatusConflict
	case "":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func (h *Controller) fail(c echo.Context, op string, err error) error {
	code := booksvc.Code(err)
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

// POST /api/books
func (h *Controller) Create(c echo.Context) error {
	var req CreateBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid JSON", "code": "BAD_REQUEST"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": err.Error(), "code": "VALIDATION_ERROR"})
	}

	b := req.toModel()
	if err := h.Svc.Create(c.Request().Context(), b); err != nil {
		return h.fail(c, "book create", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"data":    b,
		"message": "Book created successfully",
	})
}

// GET /api/books
func (h *Controller) List(c echo.Context) error {
	var f booksvc.Filter
	f.Q = c.QueryParam("q")
	f.Genre = c.QueryParam("genre")
	if v := c.QueryParam("available"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Available = &b
		}
	}
	if v := c.QueryParam("authorId"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.AuthorID = &id
		}
	}
	f.Sort = c.QueryParam("sort")
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	books, page, err := h.Svc.List(c.Request().Context(), f)
	if err != nil {
		return h.fail(c, "book list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"data":       books,
		"pagination": page,
	})
}

// GET /api/books/:id
func (h *Controller) ByID(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid id", "code": "INVALID_ID"})
	}
	b, err := h.Svc.ByID(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "book detail", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": b})
}

// PUT /api/books/:id
func (h *Controller) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid id", "code": "INVALID_ID"})
	}
	var req UpdateBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid JSON", "code": "BAD_REQUEST"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": err.Error(), "code": "VALIDATION_ERROR"})
	}

	b := CreateBookReq(req).toModel()
	b.ID = id
	if err := h.Svc.Update(c.Request().Context(), b); err != nil {
		return h.fail(c, "book update", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    b,
		"message": "Book updated successfully",
	})
}

// GET /api/books/:id/borrows
func (h *Controller) ListBorrows(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid id", "code": "INVALID_ID"})
	}
	if _, err := h.Svc.ByID(c.Request().Context(), id); err != nil {
		return h.fail(c, "book detail", err)
	}

	records, err := h.Borrows.BookHistory(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("book borrows", "err", err)
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

// DELETE /api/books/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid id", "code": "INVALID_ID"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, "book delete", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Book deleted successfully",
	})
}
