package menu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/trattoria-andreas/menu-service/app/api"
	"github.com/trattoria-andreas/menu-service/app/apperr"
	"github.com/trattoria-andreas/menu-service/app/imagestore"
	"github.com/trattoria-andreas/menu-service/models"
)

type Item struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    *string `json:"imageUrl"`
	Featured    bool    `json:"featured"`
}

type CategoryMenu struct {
	ID       uint   `json:"id"`
	Category string `json:"category"`
	Items    []Item `json:"items"`
}

type FeaturedItem struct {
	Item
	CategoryID uint   `json:"categoryId"`
	Category   string `json:"category"`
}

type BatchResult struct {
	Category string `json:"category"`
	ItemID   uint   `json:"itemId"`
	Status   string `json:"status"`
}

type BatchDeleteResponse struct {
	Message string        `json:"message"`
	Results []BatchResult `json:"results"`
}

type CategoryDeleteResponse struct {
	Message      string `json:"message"`
	ItemsDeleted int64  `json:"itemsDeleted"`
}

type MenuProvider interface {
	ListMenu(ctx context.Context) ([]models.Category, error)
	ListFeatured(ctx context.Context) ([]models.Item, error)
	CreateItem(ctx context.Context, categoryName string, item *models.Item, beforeCommit func() error) error
	SetFeatured(ctx context.Context, id uint, featured bool) error
	DeleteBatch(ctx context.Context, targets []models.BatchDeleteTarget) ([]models.BatchDeleteResult, error)
	DeleteCategory(ctx context.Context, name string) (int64, error)
	DeleteItemByID(ctx context.Context, categoryName string, id uint) error
	DeleteItemByName(ctx context.Context, categoryName, itemName string) error
}

type ImageStore interface {
	Prepare(filename string, data []byte) (*imagestore.Image, error)
	Write(img *imagestore.Image) error
	Remove(img *imagestore.Image) error
	MaxBytes() int64
}

type MenuHandler struct {
	repo   MenuProvider
	images ImageStore
	log    *zap.Logger
}

func NewMenuHandler(r MenuProvider, images ImageStore, log *zap.Logger) *MenuHandler {
	return &MenuHandler{
		repo:   r,
		images: images,
		log:    log,
	}
}

// HandleGet serves the whole menu, or only featured items with ?featured=1.
func (h *MenuHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if f := r.URL.Query().Get("featured"); f == "1" || f == "true" {
		h.handleGetFeatured(w, r)
		return
	}

	categories, err := h.repo.ListMenu(r.Context())
	if err != nil {
		api.WriteError(w, h.log, apperr.Internal("failed to fetch menu", err))
		return
	}

	response := lo.Map(categories, func(c models.Category, _ int) CategoryMenu {
		return CategoryMenu{
			ID:       c.ID,
			Category: c.Name,
			Items:    lo.Map(c.Items, func(i models.Item, _ int) Item { return toItem(i) }),
		}
	})
	api.WriteJSON(w, http.StatusOK, response)
}

func (h *MenuHandler) handleGetFeatured(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListFeatured(r.Context())
	if err != nil {
		api.WriteError(w, h.log, apperr.Internal("failed to fetch menu", err))
		return
	}

	response := lo.Map(items, func(i models.Item, _ int) FeaturedItem {
		return FeaturedItem{
			Item:       toItem(i),
			CategoryID: i.CategoryID,
			Category:   i.Category.Name,
		}
	})
	api.WriteJSON(w, http.StatusOK, response)
}

// HandleCreate adds an item, creating its category on first use. The optional
// image is written inside the database transaction and removed again if the
// item is not stored.
func (h *MenuHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.images.MaxBytes()+maxFormMemory)
	input, err := parseCreateItem(r, h.images.MaxBytes())
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	var img *imagestore.Image
	if input.Image != nil {
		img, err = h.images.Prepare(input.Image.Filename, input.Image.Data)
		if err != nil {
			api.WriteError(w, h.log, imageError(err))
			return
		}
	}

	item := &models.Item{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Featured:    input.Featured,
	}
	if img != nil {
		item.ImageURL = &img.URL
	}

	writeImage := func() error {
		if img == nil {
			return nil
		}
		return h.images.Write(img)
	}

	if err := h.repo.CreateItem(r.Context(), input.Category, item, writeImage); err != nil {
		if img != nil {
			if rmErr := h.images.Remove(img); rmErr != nil {
				h.log.Warn("failed to remove orphaned image", zap.String("image", img.Name), zap.Error(rmErr))
			}
		}
		api.WriteError(w, h.log, apperr.Internal("Failed to add item", err))
		return
	}

	h.log.Info("menu item added",
		zap.Uint("item_id", item.ID),
		zap.String("category", input.Category),
		zap.Bool("with_image", img != nil),
	)
	api.WriteMessage(w, http.StatusCreated, "Item added successfully")
}

// HandlePatch sets the featured flag of an item.
func (h *MenuHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ItemID   *uint `json:"itemId"`
		Featured *bool `json:"featured"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.WriteError(w, h.log, apperr.Validation("Invalid JSON body"))
		return
	}
	if input.ItemID == nil || input.Featured == nil {
		api.WriteError(w, h.log, apperr.Validation("Missing itemId or featured"))
		return
	}

	if err := h.repo.SetFeatured(r.Context(), *input.ItemID, *input.Featured); err != nil {
		if errors.Is(err, models.ErrItemNotFound) {
			api.WriteError(w, h.log, apperr.NotFound("Item not found"))
			return
		}
		api.WriteError(w, h.log, apperr.Internal("Failed to update item", err))
		return
	}

	api.WriteMessage(w, http.StatusOK, "Item updated successfully")
}

// HandleDelete removes a batch of items, a whole category or a single item
// depending on the request shape.
func (h *MenuHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	req, err := parseDeleteRequest(r)
	if err != nil {
		api.WriteError(w, h.log, err)
		return
	}

	ctx := r.Context()
	switch req := req.(type) {
	case batchDelete:
		results, err := h.repo.DeleteBatch(ctx, req.Targets)
		if err != nil {
			api.WriteError(w, h.log, deleteError(err))
			return
		}
		api.WriteJSON(w, http.StatusOK, BatchDeleteResponse{
			Message: "Items deleted successfully (mass delete)",
			Results: lo.Map(results, func(res models.BatchDeleteResult, _ int) BatchResult {
				return BatchResult{Category: res.Category, ItemID: res.ItemID, Status: string(res.Status)}
			}),
		})

	case categoryDelete:
		removed, err := h.repo.DeleteCategory(ctx, req.Category)
		if err != nil {
			api.WriteError(w, h.log, deleteError(err))
			return
		}
		api.WriteJSON(w, http.StatusOK, CategoryDeleteResponse{
			Message:      fmt.Sprintf("Category %q deleted.", req.Category),
			ItemsDeleted: removed,
		})

	case itemDelete:
		if req.ItemID != nil {
			err = h.repo.DeleteItemByID(ctx, req.Category, *req.ItemID)
		} else {
			err = h.repo.DeleteItemByName(ctx, req.Category, req.Name)
		}
		if err != nil {
			api.WriteError(w, h.log, deleteError(err))
			return
		}
		api.WriteMessage(w, http.StatusOK, "Item deleted successfully")
	}
}

func toItem(i models.Item) Item {
	return Item{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Price:       i.Price.InexactFloat64(),
		ImageURL:    i.ImageURL,
		Featured:    i.Featured,
	}
}

func deleteError(err error) error {
	switch {
	case errors.Is(err, models.ErrCategoryNotFound):
		return apperr.NotFound("Category not found")
	case errors.Is(err, models.ErrItemNotFound):
		return apperr.NotFound("Item not found")
	default:
		return apperr.Internal("Failed to delete", err)
	}
}

func imageError(err error) error {
	switch {
	case errors.Is(err, imagestore.ErrTooLarge):
		return apperr.Validation("image is too large")
	case errors.Is(err, imagestore.ErrUnsupported):
		return apperr.Validation("unsupported image type")
	case errors.Is(err, imagestore.ErrEmpty):
		return apperr.Validation("image is empty")
	default:
		return apperr.Internal("Failed to add item", err)
	}
}
