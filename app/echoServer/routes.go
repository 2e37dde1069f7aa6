package echoServer

import (
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/AyomideKayode/book-library-API/app/echoServer/controller/auth"
	"github.com/AyomideKayode/book-library-API/app/echoServer/controller/author"
	"github.com/AyomideKayode/book-library-API/app/echoServer/controller/book"
	"github.com/AyomideKayode/book-library-API/app/echoServer/controller/borrow"
	"github.com/AyomideKayode/book-library-API/app/echoServer/controller/user"
)

type C struct {
	Auth      *auth.Controller
	Book      *book.Controller
	Author    *author.Controller
	User      *user.Controller
	Borrow    *borrow.Controller
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/api")
	pub.POST("/staff/register", c.Auth.Register)
	pub.POST("/staff/login", c.Auth.Login)

	pub.GET("/books", c.Book.List)
	pub.GET("/books/:id", c.Book.ByID)
	pub.GET("/authors", c.Author.List)
	pub.GET("/authors/:id", c.Author.ByID)
	pub.GET("/authors/:id/books", c.Author.ListBooks)

	// Staff
	g := e.Group("/api")
	g.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization",
	}))

	// Books
	g.POST("/books", c.Book.Create)
	g.PUT("/books/:id", c.Book.Update)
	g.DELETE("/books/:id", c.Book.Delete)
	g.GET("/books/:id/borrows", c.Book.ListBorrows)

	// Authors
	g.POST("/authors", c.Author.Create)
	g.PUT("/authors/:id", c.Author.Update)
	g.DELETE("/authors/:id", c.Author.Delete)

	// Members
	g.POST("/users", c.User.Create)
	g.GET("/users", c.User.List)
	g.GET("/users/:id", c.User.ByID)
	g.GET("/users/:id/borrows", c.User.ListBorrows)
	g.PUT("/users/:id", c.User.Update)
	g.DELETE("/users/:id", c.User.Delete)

	// Circulation
	g.POST("/borrow", c.Borrow.Borrow)
	g.POST("/return", c.Borrow.Return)
	g.GET("/borrow-records", c.Borrow.List)
	g.GET("/borrow-records/overdue", c.Borrow.Overdue)
	g.GET("/borrow-records/due-soon", c.Borrow.DueSoon)
	g.GET("/borrow-records/stats", c.Borrow.Stats)
	g.GET("/borrow-records/:id", c.Borrow.ByID)
	g.PUT("/borrow-records/:id/extend", c.Borrow.Extend)
	g.POST("/borrow-records/:id/renew", c.Borrow.Renew)
	g.POST("/borrow-records/:id/lost", c.Borrow.MarkLost)
}
