package menu

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/trattoria-andreas/menu-service/app/apperr"
)

const maxFormMemory = 32 << 20

// maxPrice is the first value that no longer fits items.price decimal(10,2).
var maxPrice = decimal.New(1, 8)

var (
	formDecoder = newFormDecoder()
	validate    = newValidator()
)

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("schema")
	})
	return v
}

// createItemForm is the add-item payload as submitted by the admin form.
type createItemForm struct {
	Category    string `schema:"category" validate:"required"`
	Name        string `schema:"name" validate:"required"`
	Description string `schema:"description" validate:"required"`
	Price       string `schema:"price" validate:"required"`
	Featured    string `schema:"featured"`
}

type createItemJSON struct {
	Category    string      `json:"category"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	Featured    any         `json:"featured"`
}

type upload struct {
	Filename string
	Data     []byte
}

// createItemInput is a validated add-item request.
type createItemInput struct {
	Category    string
	Name        string
	Description string
	Price       decimal.Decimal
	Featured    bool
	Image       *upload
}

// parseCreateItem reads a multipart, urlencoded or JSON add-item request.
// maxImageBytes bounds the size of the optional image part.
func parseCreateItem(r *http.Request, maxImageBytes int64) (*createItemInput, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		form createItemForm
		img  *upload
	)
	switch mediaType {
	case "application/json":
		var body createItemJSON
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, apperr.Validation("Invalid JSON body")
		}
		form = createItemForm{
			Category:    body.Category,
			Name:        body.Name,
			Description: body.Description,
			Price:       body.Price.String(),
			Featured:    cast.ToString(body.Featured),
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return nil, apperr.Validation("invalid form data")
		}
		if err := formDecoder.Decode(&form, r.MultipartForm.Value); err != nil {
			return nil, apperr.Validation("invalid form data")
		}
		var err error
		img, err = readImage(r, maxImageBytes)
		if err != nil {
			return nil, err
		}
	default:
		if err := r.ParseForm(); err != nil {
			return nil, apperr.Validation("invalid form data")
		}
		if err := formDecoder.Decode(&form, r.PostForm); err != nil {
			return nil, apperr.Validation("invalid form data")
		}
	}

	form.Category = strings.TrimSpace(form.Category)
	form.Name = strings.TrimSpace(form.Name)
	form.Description = strings.TrimSpace(form.Description)
	form.Price = strings.TrimSpace(form.Price)

	if err := validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, apperr.Validation(fmt.Sprintf("missing required field: %s", verrs[0].Field()))
		}
		return nil, apperr.Validation("missing required field")
	}

	price, err := decimal.NewFromString(form.Price)
	if err != nil || price.IsNegative() || price.GreaterThanOrEqual(maxPrice) {
		return nil, apperr.Validation("invalid price")
	}

	return &createItemInput{
		Category:    form.Category,
		Name:        form.Name,
		Description: form.Description,
		Price:       price,
		Featured:    parseFeatured(form.Featured),
		Image:       img,
	}, nil
}

// readImage returns nil when the request carries no image or an empty one.
func readImage(r *http.Request, maxBytes int64) (*upload, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Validation("invalid image upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, apperr.Validation("invalid image upload")
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &upload{Filename: header.Filename, Data: data}, nil
}

// parseFeatured accepts the checkbox value "on" as well as the usual boolean spellings.
func parseFeatured(v string) bool {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "on") {
		return true
	}
	return cast.ToBool(v)
}
