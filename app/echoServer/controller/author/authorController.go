package author

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	authorsvc "github.com/AyomideKayode/book-library-API/service/author"
	booksvc "github.com/AyomideKayode/book-library-API/service/book"
)

type Controller struct {
	Svc   authorsvc.Service
	Books booksvc.Service
	V     *validator.Validate
	Log   *slog.Logger
}

func httpStatus(code authorsvc.ErrCode) int {
	switch code {
	case authorsvc.ErrNotFound:
		return http.StatusNotFound
	case authorsvc.ErrEmailTaken:
		return http.StatusConflict
	case "":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func (h *Controller) fail(c echo.Context, op string, err error) error {
	code := authorsvc.Code(err)
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

// POST /api/authors
func (h *Controller) Create(c echo.Context) error {
	var req AuthorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid JSON", "code": "BAD_REQUEST"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": err.Error(), "code": "VALIDATION_ERROR"})
	}

	a := req.toModel()
	if err := h.Svc.Create(c.Request().Context(), a); err != nil {
		return h.fail(c, "author create", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"data":    a,
		"message": "Author created successfully",
	})
}

// GET /api/authors
func (h *Controller) List(c echo.Context) error {
	var f authorsvc.Filter
	f.Q = c.QueryParam("q")
	f.Sort = c.QueryParam("sort")
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	authors, page, err := h.Svc.List(c.Request().Context(), f)
	if err != nil {
		return h.fail(c, "author list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"data":       authors,
		"pagination": page,
	})
}

// GET /api/authors/:id
func (h *Controller) ByID(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid id", "code": "INVALID_ID"})
	}
	a, err := h.Svc.ByID(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "author detail", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": a})
}

// GET /api/authors/:id/books
func (h *Controller) ListBooks(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid id", "code": "INVALID_ID"})
	}
	if _, err := h.Svc.ByID(c.Request().Context(), id); err != nil {
		return h.fail(c, "author detail", err)
	}

	f := booksvc.Filter{AuthorID: &id}
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	books, page, err := h.Books.List(c.Request().Context(), f)
	if err != nil {
		h.Log.Error("author books", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false, "error": "internal error", "code": "INTERNAL",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"data":       books,
		"pagination": page,
	})
}

// PUT /api/authors/:id
func (h *Controller) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid id", "code": "INVALID_ID"})
	}
	var req AuthorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid JSON", "code": "BAD_REQUEST"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": err.Error(), "code": "VALIDATION_ERROR"})
	}

	a := req.toModel()
	a.ID = id
	if err := h.Svc.Update(c.Request().Context(), a); err != nil {
		return h.fail(c, "author update", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    a,
		"message": "Author updated successfully",
	})
}

// DELETE /api/authors/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid id", "code": "INVALID_ID"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, "author delete", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Author deleted successfully",
	})
}
