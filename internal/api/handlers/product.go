package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dom/storefront/internal/domain"
	"github.com/dom/storefront/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ProductHandler struct {
	catalogService *service.CatalogService
}

func NewProductHandler(catalogService *service.CatalogService) *ProductHandler {
	return &ProductHandler{catalogService: catalogService}
}

type ProductRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Code        string   `json:"code"`
	Price       float64  `json:"price"`
	Stock       int      `json:"stock"`
	Category    string   `json:"category"`
	Status      *bool    `json:"status"`
	Thumbnails  []string `json:"thumbnails"`
}

type ProductResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Code        string    `json:"code"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	Status      bool      `json:"status"`
	Thumbnails  []string  `json:"thumbnails"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ProductsResponse struct {
	Products   []ProductResponse `json:"products"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"totalPages"`
}

func newProductResponse(p *domain.Product) ProductResponse {
	thumbnails := []string{}
	if len(p.Thumbnails) > 0 {
		json.Unmarshal(p.Thumbnails, &thumbnails)
	}
	return ProductResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Code:        p.Code,
		Price:       p.Price,
		Stock:       p.Stock,
		Category:    p.Category,
		Status:      p.Status,
		Thumbnails:  thumbnails,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (req ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Code:        req.Code,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		Status:      req.Status,
		Thumbnails:  req.Thumbnails,
	}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.catalogService.List(r.Context(), q.Get("category"), domain.ProductSort(q.Get("sort")), page, limit)
	if err != nil {
		writeError(w, r, "product.List", err)
		return
	}

	resp := ProductsResponse{
		Products:   make([]ProductResponse, len(result.Products)),
		Total:      result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
		TotalPages: result.TotalPages,
	}
	for i, p := range result.Products {
		resp.Products[i] = newProductResponse(p)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	product, err := h.catalogService.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, "product.Get", err)
		return
	}

	writeJSON(w, http.StatusOK, newProductResponse(product))
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	product, err := h.catalogService.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, r, "product.Create", err)
		return
	}

	writeJSON(w, http.StatusCreated, newProductResponse(product))
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	product, err := h.catalogService.Update(r.Context(), id, req.input())
	if err != nil {
		writeError(w, r, "product.Update", err)
		return
	}

	writeJSON(w, http.StatusOK, newProductResponse(product))
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	if err := h.catalogService.Delete(r.Context(), id); err != nil {
		writeError(w, r, "product.Delete", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
