package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/trattoria-andreas/menu-service/app/api"
	"github.com/trattoria-andreas/menu-service/app/catalog"
	"github.com/trattoria-andreas/menu-service/app/categories"
	"github.com/trattoria-andreas/menu-service/app/database"
	"github.com/trattoria-andreas/menu-service/app/imagestore"
	"github.com/trattoria-andreas/menu-service/app/menu"
	"github.com/trattoria-andreas/menu-service/app/middleware"
	"github.com/trattoria-andreas/menu-service/models"
)

type Dependencies struct {
	DB     *gorm.DB
	Images *imagestore.Store
	Log    *zap.Logger
}

// NewRouter wires the menu API, the category API and the static image files.
func NewRouter(deps Dependencies) http.Handler {
	repo := models.NewMenuRepository(deps.DB)

	menuHandler := menu.NewMenuHandler(repo, deps.Images, deps.Log)
	catalogHandler := catalog.NewCatalogHandler(repo, deps.Log)
	categoryHandler := categories.NewCategoryHandler(repo, deps.Log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /menu", menuHandler.HandleGet)
	mux.HandleFunc("POST /menu", menuHandler.HandleCreate)
	mux.HandleFunc("PATCH /menu", menuHandler.HandlePatch)
	mux.HandleFunc("DELETE /menu", menuHandler.HandleDelete)
	mux.HandleFunc("GET /menu/items/{id}", catalogHandler.HandleGetItem)

	mux.HandleFunc("GET /categories", categoryHandler.HandleGetAll)
	mux.HandleFunc("POST /categories", categoryHandler.HandleCreate)

	mux.HandleFunc("GET /healthz", healthHandler(deps.DB))

	prefix := strings.TrimSuffix(deps.Images.PublicPath(), "/") + "/"
	mux.Handle("GET "+prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(deps.Images.Dir()))))

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.AccessLog(deps.Log),
		middleware.Recover(deps.Log),
	)
}

func healthHandler(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := database.Ping(ctx, db); err != nil {
			api.WriteJSON(w, http.StatusServiceUnavailable, api.ErrorResponse{Error: "database unavailable"})
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
