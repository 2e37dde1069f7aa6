package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/AyomideKayode/book-library-API/model"
	authsvc "github.com/AyomideKayode/book-library-API/service/auth"
)

type Controller struct {
	Svc authsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

func httpStatus(code authsvc.ErrCode) int {
	switch code {
	case authsvc.ErrUsernameTaken:
		return http.StatusConflict
	case authsvc.ErrInvalidCreds:
		return http.StatusUnauthorized
	case "":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func (h *Controller) fail(c echo.Context, op string, err error) error {
	code := authsvc.Code(err)
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

// POST /api/staff/register
func (h *Controller) Register(c echo.Context) error {
	var req model.StaffRegisterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid JSON", "code": "BAD_REQUEST"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": err.Error(), "code": "VALIDATION_ERROR"})
	}

	st, token, err := h.Svc.Register(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, "staff register", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"data":    echo.Map{"staff": st, "token": token},
		"message": "Staff registered successfully",
	})
}

// POST /api/staff/login
func (h *Controller) Login(c echo.Context) error {
	var req model.StaffLoginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid JSON", "code": "BAD_REQUEST"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": err.Error(), "code": "VALIDATION_ERROR"})
	}

	st, token, err := h.Svc.Login(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, "staff login", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"staff": st, "token": token},
	})
}
