package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/checkout-saga/internal/httpx"
	"github.com/MikeMC777/checkout-saga/internal/wallet"
)

func getWalletHandler(l *wallet.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := httpx.ParamID(c, "user_id")
		if !ok {
			return
		}
		w, err := l.Get(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, wallet.ErrNotFound) {
				httpx.Fail(c, http.StatusNotFound, "wallet not found")
				return
			}
			httpx.Fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, w)
	}
}

// updateWalletHandler creates the wallet on first use, then debits
// (only when the balance covers it) or credits.
func updateWalletHandler(l *wallet.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := httpx.ParamID(c, "user_id")
		if !ok {
			return
		}
		var req wallet.UpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Fail(c, http.StatusBadRequest, httpx.BindError(err))
			return
		}
		w, err := l.Apply(c.Request.Context(), userID, req)
		if err != nil {
			if errors.Is(err, wallet.ErrInsufficientFunds) {
				httpx.Fail(c, http.StatusBadRequest, "insufficient funds")
				return
			}
			httpx.Fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, w)
	}
}

func deleteWalletHandler(l *wallet.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := httpx.ParamID(c, "user_id")
		if !ok {
			return
		}
		deleted, err := l.Delete(c.Request.Context(), userID)
		if err != nil {
			httpx.Fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		if !deleted {
			httpx.Fail(c, http.StatusNotFound, "wallet not found")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func deleteAllWalletsHandler(l *wallet.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := l.DeleteAll(c.Request.Context()); err != nil {
			httpx.Fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func registerRoutes(r gin.IRouter, l *wallet.Ledger) {
	r.GET("/wallets/:user_id", getWalletHandler(l))
	r.PUT("/wallets/:user_id", updateWalletHandler(l))
	r.DELETE("/wallets/:user_id", deleteWalletHandler(l))
	r.DELETE("/wallets", deleteAllWalletsHandler(l))
}
