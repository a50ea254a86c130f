package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/checkout-saga/internal/httpx"
	ord "github.com/MikeMC777/checkout-saga/internal/order"
)

// statusFor maps saga errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ord.ErrNotFound),
		errors.Is(err, ord.ErrNothingToCancel),
		errors.Is(err, ord.ErrCustomerNotFound):
		return http.StatusNotFound
	case errors.Is(err, ord.ErrNotPlaced),
		errors.Is(err, ord.ErrUnsupportedStatus),
		errors.Is(err, ord.ErrOrderIDMismatch),
		errors.Is(err, ord.ErrNoItems),
		errors.Is(err, ord.ErrInvalidQuantity),
		errors.Is(err, ord.ErrProductUnavailable),
		errors.Is(err, ord.ErrInsufficientFunds),
		errors.Is(err, ord.ErrPaymentFailed),
		errors.Is(err, ord.ErrStockUpdateFailed):
		return http.StatusBadRequest
	case errors.Is(err, ord.ErrCustomerUnavailable),
		errors.Is(err, ord.ErrInventoryUnavailable),
		errors.Is(err, ord.ErrWalletUnavailable),
		errors.Is(err, ord.ErrRefundFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	httpx.Fail(c, statusFor(err), err.Error())
}

// createOrderHandler godoc
// @Summary      Place an order
// @Description  Debits the wallet, decrements stock and applies the first-order discount.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        body  body      ord.CreateOrderRequest  true  "order"
// @Success      201   {object}  ord.Order
// @Failure      400   {object}  httpx.HTTPError
// @Failure      404   {object}  httpx.HTTPError
// @Failure      502   {object}  httpx.HTTPError
// @Router       /orders [post]
func createOrderHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Fail(c, http.StatusBadRequest, httpx.BindError(err))
			return
		}
		o, err := svc.Place(c.Request.Context(), req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, o)
	}
}

// getOrderHandler godoc
// @Summary  Get an order
// @Tags     orders
// @Produce  json
// @Param    id   path      int  true  "order id"
// @Success  200  {object}  ord.Order
// @Failure  404  {object}  httpx.HTTPError
// @Router   /orders/{id} [get]
func getOrderHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := httpx.ParamID(c, "id")
		if !ok {
			return
		}
		o, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// listOrdersByUserHandler godoc
// @Summary  List the orders of a user
// @Tags     orders
// @Produce  json
// @Param    user_id  path   int  true  "user id"
// @Success  200      {array}  ord.Order
// @Router   /orders/users/{user_id} [get]
func listOrdersByUserHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := httpx.ParamID(c, "user_id")
		if !ok {
			return
		}
		orders, err := svc.ListByUser(c.Request.Context(), userID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// listOrdersHandler godoc
// @Summary  List all orders
// @Tags     orders
// @Produce  json
// @Success  200  {array}  ord.Order
// @Router   /orders [get]
func listOrdersHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.List(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// updateOrderStatusHandler godoc
// @Summary      Mark an order delivered
// @Description  Only PLACED orders can move, and only to DELIVERED.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id    path      int                      true  "order id"
// @Param        body  body      ord.StatusUpdateRequest  true  "status"
// @Success      200   {object}  ord.Order
// @Failure      400   {object}  httpx.HTTPError
// @Failure      404   {object}  httpx.HTTPError
// @Router       /orders/{id} [put]
func updateOrderStatusHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := httpx.ParamID(c, "id")
		if !ok {
			return
		}
		var req ord.StatusUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Fail(c, http.StatusBadRequest, httpx.BindError(err))
			return
		}
		o, err := svc.UpdateStatus(c.Request.Context(), id, req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// cancelOrderHandler godoc
// @Summary      Cancel an order
// @Description  Refunds the wallet and restores stock. A 502 means the order is cancelled but the refund failed.
// @Tags         orders
// @Produce      json
// @Param        id   path      int  true  "order id"
// @Success      200  {object}  ord.Order
// @Failure      400  {object}  httpx.HTTPError
// @Failure      404  {object}  httpx.HTTPError
// @Failure      502  {object}  httpx.HTTPError
// @Router       /orders/{id} [delete]
func cancelOrderHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := httpx.ParamID(c, "id")
		if !ok {
			return
		}
		o, err := svc.Cancel(c.Request.Context(), id)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// cancelUserOrdersHandler godoc
// @Summary  Cancel every placed order of a user
// @Tags     marketplace
// @Produce  json
// @Param    user_id  path      int  true  "user id"
// @Success  200      {object}  ord.CancelSummary
// @Failure  404      {object}  httpx.HTTPError
// @Router   /marketplace/users/{user_id} [delete]
func cancelUserOrdersHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := httpx.ParamID(c, "user_id")
		if !ok {
			return
		}
		sum, err := svc.CancelUser(c.Request.Context(), userID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, sum)
	}
}

// cancelAllOrdersHandler godoc
// @Summary  Cancel every placed order in the system
// @Tags     marketplace
// @Produce  json
// @Success  200  {object}  ord.CancelSummary
// @Router   /marketplace [delete]
func cancelAllOrdersHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sum, err := svc.CancelAll(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, sum)
	}
}

func registerRoutes(r gin.IRouter, svc *ord.Service) {
	r.POST("/orders", createOrderHandler(svc))
	r.GET("/orders", listOrdersHandler(svc))
	r.GET("/orders/:id", getOrderHandler(svc))
	r.PUT("/orders/:id", updateOrderStatusHandler(svc))
	r.DELETE("/orders/:id", cancelOrderHandler(svc))
	r.GET("/orders/users/:user_id", listOrdersByUserHandler(svc))
	r.DELETE("/marketplace", cancelAllOrdersHandler(svc))
	r.DELETE("/marketplace/users/:user_id", cancelUserOrdersHandler(svc))
}
