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

	"github.com/shopkit/storefront/internal/catalog"
	"github.com/shopkit/storefront/internal/redisx"
)

type CatalogHandler struct {
	Repo  *catalog.Repo
	Redis *redis.Client
	Auth  *AuthMiddleware
}

func (h *CatalogHandler) Register(r *chi.Mux) {
	r.Get("/products", h.listProducts)
	r.Get("/products/search", h.searchProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Get("/categories", h.listCategories)

	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAdmin)
		r.Post("/products", h.createProduct)
		r.Put("/products/{id}", h.updateProduct)
		r.Delete("/products/{id}", h.deleteProduct)
		r.Post("/categories", h.createCategory)
		r.Put("/categories/{id}", h.updateCategory)
		r.Delete("/categories/{id}", h.deleteCategory)
	})
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Repo.ListProducts(r.Context())
	if err != nil {
		log.Printf("list products: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	w.Header().Set("Cache-Control", "s-maxage=60, stale-while-revalidate=300")
	writeJSON(w, http.StatusOK, ps)
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	ctx := r.Context()

	key := fmt.Sprintf(redisx.KeyProduct, id)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	p, err := h.Repo.GetProduct(ctx, id)
	if errors.Is(err, catalog.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		log.Printf("get product %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch product")
		return
	}
	if b, err := json.Marshal(p); err == nil {
		_ = h.Redis.Set(ctx, key, b, redisx.TTLProductCache).Err()
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) searchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := catalog.SearchParams{
		Query:     q.Get("q"),
		Category:  q.Get("category"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}
	if v := q.Get("minPrice"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid minPrice")
			return
		}
		params.MinPrice = &f
	}
	if v := q.Get("maxPrice"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid maxPrice")
			return
		}
		params.MaxPrice = &f
	}

	ps, err := h.Repo.SearchProducts(r.Context(), params)
	if err != nil {
		log.Printf("search products: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to search products")
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *CatalogHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if p.Name == "" || p.Price <= 0 || p.CategoryID == 0 {
		writeError(w, http.StatusBadRequest, "name, price and categoryId are required")
		return
	}
	created, err := h.Repo.CreateProduct(r.Context(), &p)
	if err != nil {
		log.Printf("create product: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *CatalogHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	p.ID = id
	updated, err := h.Repo.UpdateProduct(r.Context(), &p)
	if errors.Is(err, catalog.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		log.Printf("update product %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}
	h.invalidateProducts(r, id)
	writeJSON(w, http.StatusOK, updated)
}

func (h *CatalogHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	err = h.Repo.DeleteProduct(r.Context(), id)
	if errors.Is(err, catalog.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		log.Printf("delete product %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}
	h.invalidateProducts(r, id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Repo.ListCategories(r.Context())
	if err != nil {
		log.Printf("list categories: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	w.Header().Set("Cache-Control", "s-maxage=600, stale-while-revalidate=1200")
	writeJSON(w, http.StatusOK, cs)
}

func (h *CatalogHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req catalog.Category
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	c, err := h.Repo.CreateCategory(r.Context(), req.Name)
	if errors.Is(err, catalog.ErrCategoryExists) {
		writeError(w, http.StatusBadRequest, "Category already exists")
		return
	}
	if err != nil {
		log.Printf("create category: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CatalogHandler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req catalog.Category
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	c, err := h.Repo.UpdateCategory(r.Context(), id, req.Name)
	switch {
	case errors.Is(err, catalog.ErrCategoryNotFound):
		writeError(w, http.StatusNotFound, "Category not found")
	case errors.Is(err, catalog.ErrCategoryExists):
		writeError(w, http.StatusBadRequest, "Category already exists")
	case err != nil:
		log.Printf("update category %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to update category")
	default:
		writeJSON(w, http.StatusOK, c)
	}
}

func (h *CatalogHandler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	productIDs, err := h.Repo.DeleteCategory(r.Context(), id)
	if errors.Is(err, catalog.ErrCategoryNotFound) {
		writeError(w, http.StatusNotFound, "Category not found")
		return
	}
	if err != nil {
		log.Printf("delete category %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to delete category")
		return
	}
	h.invalidateProducts(r, productIDs...)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Category deleted successfully"})
}

func (h *CatalogHandler) invalidateProducts(r *http.Request, ids ...int64) {
	for _, id := range ids {
		_ = h.Redis.Del(r.Context(), fmt.Sprintf(redisx.KeyProduct, id)).Err()
	}
}
