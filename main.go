// Package main library circulation API.
//
// @title           Book Library API
// @version         1.0
// @description     Library catalog and circulation service (books, authors, members, borrowing).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/AyomideKayode/book-library-API/app/echoServer"
	authctrl "github.com/AyomideKayode/book-library-API/app/echoServer/controller/auth"
	authorctrl "github.com/AyomideKayode/book-library-API/app/echoServer/controller/author"
	bookctrl "github.com/AyomideKayode/book-library-API/app/echoServer/controller/book"
	borrowctrl "github.com/AyomideKayode/book-library-API/app/echoServer/controller/borrow"
	userctrl "github.com/AyomideKayode/book-library-API/app/echoServer/controller/user"
	"github.com/AyomideKayode/book-library-API/app/echoServer/validation"
	"github.com/AyomideKayode/book-library-API/config"
	authrepo "github.com/AyomideKayode/book-library-API/repository/auth"
	authorrepo "github.com/AyomideKayode/book-library-API/repository/author"
	bookrepo "github.com/AyomideKayode/book-library-API/repository/book"
	borrowrepo "github.com/AyomideKayode/book-library-API/repository/borrow"
	userrepo "github.com/AyomideKayode/book-library-API/repository/user"
	authsvc "github.com/AyomideKayode/book-library-API/service/auth"
	authorsvc "github.com/AyomideKayode/book-library-API/service/author"
	booksvc "github.com/AyomideKayode/book-library-API/service/book"
	borrowsvc "github.com/AyomideKayode/book-library-API/service/borrow"
	usersvc "github.com/AyomideKayode/book-library-API/service/user"
	"github.com/AyomideKayode/book-library-API/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB: *sql.DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	ar := authrepo.New(db)
	br := bookrepo.New(db)
	aur := authorrepo.New(db)
	ur := userrepo.New(db)
	cr := borrowrepo.New(db)

	// services
	as := authsvc.New(ar, cfg.JWTSecret)
	bs := booksvc.New(br)
	aus := authorsvc.New(aur)
	us := usersvc.New(ur)
	cs := borrowsvc.New(cr)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, Borrows: cs, V: v, Log: log}
	authorC := &authorctrl.Controller{Svc: aus, Books: bs, V: v, Log: log}
	userC := &userctrl.Controller{Svc: us, Borrows: cs, V: v, Log: log}
	borrowC := &borrowctrl.Controller{Svc: cs, V: v, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:   authC,
		Book:   bookC,
		Author: authorC,
		User:   userC,
		Borrow: borrowC,

		JWTSecret: cfg.JWTSecret,
	})

	// periodic overdue reclassification
	sweeper := borrowsvc.NewSweeper(cs, log, cfg.SweepInterval)
	sweeper.Start(ctx)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	slog.Info("starting server", "PORT_env", os.Getenv("PORT"), "chosen_port", port)

	e.Logger.Fatal(e.Start(":" + port))
}
