package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/trattoria-andreas/menu-service/app/api"
	"github.com/trattoria-andreas/menu-service/app/apperr"
	"github.com/trattoria-andreas/menu-service/models"
)

type Category struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// ItemDetail is the product page view of a single menu item.
type ItemDetail struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	ImageURL    *string  `json:"imageUrl"`
	Featured    bool     `json:"featured"`
	Category    Category `json:"category"`
}

type ItemProvider interface {
	GetItem(ctx context.Context, id uint) (*models.Item, error)
}

type CatalogHandler struct {
	repo ItemProvider
	log  *zap.Logger
}

func NewCatalogHandler(r ItemProvider, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		repo: r,
		log:  log,
	}
}

func (h *CatalogHandler) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		api.WriteError(w, h.log, apperr.Validation("Invalid item id"))
		return
	}

	item, err := h.repo.GetItem(r.Context(), uint(id))
	if err != nil {
		if errors.Is(err, models.ErrItemNotFound) {
			api.WriteError(w, h.log, apperr.NotFound("Item not found"))
			return
		}
		api.WriteError(w, h.log, apperr.Internal("failed to fetch item", err))
		return
	}

	api.WriteJSON(w, http.StatusOK, ItemDetail{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price.InexactFloat64(),
		ImageURL:    item.ImageURL,
		Featured:    item.Featured,
		Category: Category{
			ID:   item.Category.ID,
			Name: item.Category.Name,
		},
	})
}
