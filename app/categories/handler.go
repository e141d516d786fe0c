package categories

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/trattoria-andreas/menu-service/app/api"
	"github.com/trattoria-andreas/menu-service/app/apperr"
	"github.com/trattoria-andreas/menu-service/models"
)

type CategoryResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	ItemCount int64  `json:"itemCount"`
}

type CategoryProvider interface {
	ListCategories(ctx context.Context) ([]models.CategorySummary, error)
	EnsureCategory(ctx context.Context, name string) (*models.Category, bool, error)
}

type CategoryHandler struct {
	repo CategoryProvider
	log  *zap.Logger
}

func NewCategoryHandler(r CategoryProvider, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{repo: r, log: log}
}

func (h *CategoryHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.ListCategories(r.Context())
	if err != nil {
		api.WriteError(w, h.log, apperr.Internal("failed to fetch categories", err))
		return
	}

	response := lo.Map(categories, func(c models.CategorySummary, _ int) CategoryResponse {
		return CategoryResponse{
			ID:        c.ID,
			Name:      c.Name,
			ItemCount: c.ItemCount,
		}
	})
	api.WriteJSON(w, http.StatusOK, response)
}

// HandleCreate creates a category by name. Creating an existing name is not an
// error and answers 200 instead of 201.
func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.WriteError(w, h.log, apperr.Validation("Invalid JSON body"))
		return
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		api.WriteError(w, h.log, apperr.Validation("Missing name"))
		return
	}

	category, created, err := h.repo.EnsureCategory(r.Context(), name)
	if err != nil {
		api.WriteError(w, h.log, apperr.Internal("Failed to create category", err))
		return
	}

	if !created {
		api.WriteJSON(w, http.StatusOK, CategoryResponse{ID: category.ID, Name: category.Name})
		return
	}
	api.WriteJSON(w, http.StatusCreated, CategoryResponse{ID: category.ID, Name: category.Name})
}
