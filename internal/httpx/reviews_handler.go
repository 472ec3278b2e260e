package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/shopkit/storefront/internal/auth"
	"github.com/shopkit/storefront/internal/redisx"
	"github.com/shopkit/storefront/internal/reviews"
)

type ReviewsHandler struct {
	Svc   *reviews.Service
	Redis *redis.Client
	Auth  *AuthMiddleware
}

func (h *ReviewsHandler) Register(r *chi.Mux) {
	r.Get("/reviews", h.listByProduct)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireUser)
		r.Post("/reviews", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAdmin)
		r.Get("/admin/reviews", h.listAll)
		r.Patch("/admin/reviews", h.patch)
		r.Delete("/admin/reviews", h.delete)
		r.Post("/admin/reset-ratings", h.resetRatings)
	})
}

type createReviewReq struct {
	ProductID int64  `json:"productId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (h *ReviewsHandler) create(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req createReviewReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProductID == 0 || req.Rating == 0 {
		writeError(w, http.StatusBadRequest, "Product ID and rating are required")
		return
	}

	rv, err := h.Svc.Create(r.Context(), id.UserID, req.ProductID, req.Rating, req.Comment)
	var inel *reviews.IneligibleError
	switch {
	case errors.Is(err, reviews.ErrInvalidRating):
		writeError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
	case errors.As(err, &inel):
		writeError(w, http.StatusForbidden, inel.Reason)
	case err != nil:
		log.Printf("create review: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create review")
	default:
		h.invalidateProduct(r, rv.ProductID)
		writeJSON(w, http.StatusCreated, rv)
	}
}

func (h *ReviewsHandler) listByProduct(w http.ResponseWriter, r *http.Request) {
	pid, err := strconv.ParseInt(r.URL.Query().Get("productId"), 10, 64)
	if err != nil || pid == 0 {
		writeError(w, http.StatusBadRequest, "Product ID is required")
		return
	}
	rvs, err := h.Svc.ListByProduct(r.Context(), pid)
	if err != nil {
		log.Printf("list reviews: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch reviews")
		return
	}
	writeJSON(w, http.StatusOK, rvs)
}

func (h *ReviewsHandler) listAll(w http.ResponseWriter, r *http.Request) {
	rvs, err := h.Svc.ListAll(r.Context())
	if err != nil {
		log.Printf("list all reviews: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch reviews")
		return
	}
	writeJSON(w, http.StatusOK, rvs)
}

type patchReviewReq struct {
	ReviewID int64  `json:"reviewId"`
	Action   string `json:"action"`
}

func (h *ReviewsHandler) patch(w http.ResponseWriter, r *http.Request) {
	var req patchReviewReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Action != "approve" {
		writeError(w, http.StatusBadRequest, "Invalid action")
		return
	}
	rv, err := h.Svc.Approve(r.Context(), req.ReviewID)
	switch {
	case errors.Is(err, reviews.ErrNotFound):
		writeError(w, http.StatusNotFound, "Review not found")
	case err != nil:
		log.Printf("approve review %d: %v", req.ReviewID, err)
		writeError(w, http.StatusInternalServerError, "Failed to update review")
	default:
		h.invalidateProduct(r, rv.ProductID)
		writeJSON(w, http.StatusOK, rv)
	}
}

func (h *ReviewsHandler) delete(w http.ResponseWriter, r *http.Request) {
	rid, err := strconv.ParseInt(r.URL.Query().Get("reviewId"), 10, 64)
	if err != nil || rid == 0 {
		writeError(w, http.StatusBadRequest, "Review ID is required")
		return
	}
	rv, err := h.Svc.Delete(r.Context(), rid)
	switch {
	case errors.Is(err, reviews.ErrNotFound):
		writeError(w, http.StatusNotFound, "Review not found")
	case err != nil:
		log.Printf("delete review %d: %v", rid, err)
		writeError(w, http.StatusInternalServerError, "Failed to delete review")
	default:
		h.invalidateProduct(r, rv.ProductID)
		writeJSON(w, http.StatusOK, rv)
	}
}

func (h *ReviewsHandler) resetRatings(w http.ResponseWriter, r *http.Request) {
	n, err := h.Svc.ResetAll(r.Context())
	if err != nil {
		log.Printf("reset ratings: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to reset ratings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Reset ratings for %d products", n),
		"count":   n,
	})
}

func (h *ReviewsHandler) invalidateProduct(r *http.Request, productID int64) {
	if h.Redis == nil {
		return
	}
	_ = h.Redis.Del(r.Context(), fmt.Sprintf(redisx.KeyProduct, productID)).Err()
}
