package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/checkout-saga/internal/httpx"
	"github.com/MikeMC777/checkout-saga/internal/user"
)

// cascader is the set of cross-service deletes issued when customers go away.
type cascader interface {
	DeleteWallet(ctx context.Context, userID int64) error
	DeleteAllWallets(ctx context.Context) error
	CancelAllOrders(ctx context.Context) error
}

func createUserHandler(repo user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req user.CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Fail(c, http.StatusBadRequest, httpx.BindError(err))
			return
		}
		cust := &user.Customer{ID: req.ID, Name: req.Name, Email: req.Email}
		if err := repo.Create(c.Request.Context(), cust); err != nil {
			if errors.Is(err, user.ErrAlreadyExist) {
				httpx.Fail(c, http.StatusBadRequest, "customer already exists")
				return
			}
			httpx.Fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusCreated, cust)
	}
}

func getUserHandler(repo user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := httpx.ParamID(c, "id")
		if !ok {
			return
		}
		cust, err := repo.GetByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				httpx.Fail(c, http.StatusNotFound, "customer not found")
				return
			}
			httpx.Fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, cust)
	}
}

// setDiscountHandler takes a bare JSON boolean as body.
func setDiscountHandler(repo user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := httpx.ParamID(c, "id")
		if !ok {
			return
		}
		var availed *bool
		body, err := c.GetRawData()
		if err == nil {
			err = json.Unmarshal(body, &availed)
		}
		if err != nil || availed == nil {
			httpx.Fail(c, http.StatusBadRequest, "body must be true or false")
			return
		}
		if err := repo.SetDiscountAvailed(c.Request.Context(), id, *availed); err != nil {
			if errors.Is(err, user.ErrNotFound) {
				httpx.Fail(c, http.StatusNotFound, "customer not found")
				return
			}
			httpx.Fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		cust, err := repo.GetByID(c.Request.Context(), id)
		if err != nil {
			httpx.Fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, cust)
	}
}

// deleteUserHandler removes the wallet first; a failure there is logged
// and does not stop the customer delete.
func deleteUserHandler(repo user.Repository, cascade cascader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := httpx.ParamID(c, "id")
		if !ok {
			return
		}
		if err := cascade.DeleteWallet(c.Request.Context(), id); err != nil {
			log.Printf("[user] id=%d wallet delete failed: %v", id, err)
		}
		deleted, err := repo.Delete(c.Request.Context(), id)
		if err != nil {
			httpx.Fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		if !deleted {
			httpx.Fail(c, http.StatusNotFound, "customer not found")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// deleteAllUsersHandler cancels every placed order (refunding wallets),
// drops all wallets and then all customers.
func deleteAllUsersHandler(repo user.Repository, cascade cascader) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if err := cascade.CancelAllOrders(ctx); err != nil {
			log.Printf("[user] cancel all orders failed: %v", err)
		}
		if err := cascade.DeleteAllWallets(ctx); err != nil {
			log.Printf("[user] delete all wallets failed: %v", err)
		}
		if err := repo.DeleteAll(ctx); err != nil {
			httpx.Fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func registerRoutes(r gin.IRouter, repo user.Repository, cascade cascader) {
	r.POST("/users", createUserHandler(repo))
	r.GET("/users/:id", getUserHandler(repo))
	r.PUT("/users/:id", setDiscountHandler(repo))
	r.DELETE("/users/:id", deleteUserHandler(repo, cascade))
	r.DELETE("/users", deleteAllUsersHandler(repo, cascade))
}
