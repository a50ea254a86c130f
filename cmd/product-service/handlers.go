package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/checkout-saga/internal/httpx"
	prod "github.com/MikeMC777/checkout-saga/internal/product"
)

func listProductsHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := repo.List(c.Request.Context())
		if err != nil {
			httpx.Fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func getProductHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := httpx.ParamID(c, "id")
		if !ok {
			return
		}
		p, err := repo.GetByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, prod.ErrNotFound) {
				httpx.Fail(c, http.StatusNotFound, "product not found")
				return
			}
			httpx.Fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// createProductHandler seeds the catalog.
func createProductHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req prod.CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Fail(c, http.StatusBadRequest, httpx.BindError(err))
			return
		}
		p := &prod.Product{
			ID:          req.ID,
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Stock:       req.Stock,
		}
		if err := repo.Create(c.Request.Context(), p); err != nil {
			if errors.Is(err, prod.ErrAlreadyExist) {
				httpx.Fail(c, http.StatusConflict, "product already exists")
				return
			}
			httpx.Fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// updateStockHandler applies a conditional decrement or an increment.
func updateStockHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := httpx.ParamID(c, "id")
		if !ok {
			return
		}
		var req prod.StockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Fail(c, http.StatusBadRequest, httpx.BindError(err))
			return
		}
		p, err := prod.ApplyStock(c.Request.Context(), repo, id, req)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, p)
		case errors.Is(err, prod.ErrInsufficientStock):
			httpx.Fail(c, http.StatusConflict, err.Error())
		case errors.Is(err, prod.ErrNotFound):
			httpx.Fail(c, http.StatusNotFound, "product not found")
		default:
			httpx.Fail(c, http.StatusInternalServerError, err.Error())
		}
	}
}

func registerRoutes(r gin.IRouter, repo prod.Repository) {
	r.GET("/products", listProductsHandler(repo))
	r.GET("/products/:id", getProductHandler(repo))
	r.POST("/products", createProductHandler(repo))
	r.PUT("/products/:id/stock", updateStockHandler(repo))
}
