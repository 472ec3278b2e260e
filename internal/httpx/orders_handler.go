package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/shopkit/storefront/internal/orders"
	"github.com/shopkit/storefront/internal/redisx"
)

type OrdersHandler struct {
	Svc   *orders.Service
	Redis *redis.Client
	Auth  *AuthMiddleware
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.create)
	r.Get("/orders/{id}", h.get)
	r.Put("/orders/{id}", h.updateStatus)
	r.Delete("/orders/{id}", h.delete)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAdmin)
		r.Get("/orders", h.list)
	})
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var in orders.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	o, err := h.Svc.Create(r.Context(), in, r.Header.Get("X-Request-Id"))
	switch {
	case errors.Is(err, orders.ErrMissingFields), errors.Is(err, orders.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		log.Printf("create order: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create order")
	default:
		writeJSON(w, http.StatusCreated, o)
	}
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	ctx := r.Context()

	key := fmt.Sprintf(redisx.KeyOrder, id)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	o, err := h.Svc.Get(ctx, id)
	if errors.Is(err, orders.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		log.Printf("get order %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch order")
		return
	}
	if b, err := json.Marshal(o); err == nil {
		_ = h.Redis.Set(ctx, key, b, redisx.TTLOrderCache).Err()
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	os, err := h.Svc.List(r.Context())
	if err != nil {
		log.Printf("list orders: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}
	writeJSON(w, http.StatusOK, os)
}

type updateStatusReq struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	o, err := h.Svc.UpdateStatus(r.Context(), id, orders.Status(req.Status))
	switch {
	case errors.Is(err, orders.ErrInvalidStatus), errors.Is(err, orders.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orders.ErrNotFound):
		writeError(w, http.StatusNotFound, "Order not found")
	case err != nil:
		log.Printf("update order %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to update order")
	default:
		h.invalidateOrder(r, id)
		writeJSON(w, http.StatusOK, o)
	}
}

func (h *OrdersHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	err = h.Svc.Delete(r.Context(), id)
	switch {
	case errors.Is(err, orders.ErrNotFound):
		writeError(w, http.StatusNotFound, "Order not found")
	case err != nil:
		log.Printf("delete order %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to delete order")
	default:
		h.invalidateOrder(r, id)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Order deleted successfully"})
	}
}

func (h *OrdersHandler) invalidateOrder(r *http.Request, id int64) {
	_ = h.Redis.Del(r.Context(), fmt.Sprintf(redisx.KeyOrder, id)).Err()
}
