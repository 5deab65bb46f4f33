package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/quillify-app/quillify/apperr"
	"github.com/quillify-app/quillify/middleware/sessionauth"
	"github.com/quillify-app/quillify/services/books"
)

type BooksHandler struct {
	books *books.Service
}

func NewBooksHandler(svc *books.Service) *BooksHandler {
	return &BooksHandler{books: svc}
}

func (h *BooksHandler) Create(c echo.Context) error {
	var in books.CreateInput
	if err := c.Bind(&in); err != nil {
		return respondError(c, apperr.BadRequest("invalid request body"))
	}

	b, err := h.books.Create(sessionauth.GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, b)
}

func (h *BooksHandler) Get(c echo.Context) error {
	b, err := h.books.Get(sessionauth.GetUserID(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, b)
}

func (h *BooksHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))

	result, err := h.books.List(sessionauth.GetUserID(c), page, perPage)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *BooksHandler) Update(c echo.Context) error {
	var in books.UpdateInput
	if err := c.Bind(&in); err != nil {
		return respondError(c, apperr.BadRequest("invalid request body"))
	}

	b, err := h.books.Update(sessionauth.GetUserID(c), c.Param("id"), in)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, b)
}

func (h *BooksHandler) Delete(c echo.Context) error {
	if err := h.books.Delete(sessionauth.GetUserID(c), c.Param("id")); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *BooksHandler) Stats(c echo.Context) error {
	stats, err := h.books.Stats(sessionauth.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, stats)
}
