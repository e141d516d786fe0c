package menu

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/trattoria-andreas/menu-service/app/apperr"
	"github.com/trattoria-andreas/menu-service/models"
)

const maxDeleteBody = 1 << 20

// deleteRequest is one of batchDelete, categoryDelete or itemDelete.
type deleteRequest interface {
	isDeleteRequest()
}

type batchDelete struct {
	Targets []models.BatchDeleteTarget
}

type categoryDelete struct {
	Category string
}

// itemDelete targets one item of a category, by id when ItemID is set and by
// name otherwise.
type itemDelete struct {
	Category string
	ItemID   *uint
	Name     string
}

func (batchDelete) isDeleteRequest()    {}
func (categoryDelete) isDeleteRequest() {}
func (itemDelete) isDeleteRequest()     {}

type batchDeleteBody struct {
	Items json.RawMessage `json:"items"`
}

type batchDeletePair struct {
	Category string `json:"category"`
	ItemID   uint   `json:"itemId"`
}

// parseDeleteRequest decides the request shape once. A JSON body whose "items"
// is a list selects a batch, and a batch never falls back to the query; otherwise
// the query string selects a whole category or a single item.
func parseDeleteRequest(r *http.Request) (deleteRequest, error) {
	if r.Body != nil && r.Body != http.NoBody {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxDeleteBody))
		if err != nil {
			return nil, apperr.Validation("invalid request body")
		}

		var body batchDeleteBody
		if len(raw) > 0 && json.Unmarshal(raw, &body) == nil {
			var pairs []json.RawMessage
			if isJSONArray(body.Items) && json.Unmarshal(body.Items, &pairs) == nil {
				return parseBatch(pairs)
			}
		}
	}

	q := r.URL.Query()
	category := strings.TrimSpace(q.Get("category"))
	if category == "" {
		return nil, apperr.Validation("Missing 'category' in query")
	}

	itemID := strings.TrimSpace(q.Get("itemId"))
	name := strings.TrimSpace(q.Get("name"))
	if itemID == "" && name == "" {
		return categoryDelete{Category: category}, nil
	}

	req := itemDelete{Category: category, Name: name}
	if itemID != "" {
		id, err := strconv.ParseUint(itemID, 10, 64)
		if err != nil {
			return nil, apperr.Validation("invalid itemId")
		}
		uid := uint(id)
		req.ItemID = &uid
	}
	return req, nil
}

func parseBatch(pairs []json.RawMessage) (deleteRequest, error) {
	targets := make([]models.BatchDeleteTarget, len(pairs))
	for i, p := range pairs {
		var pair batchDeletePair
		if err := json.Unmarshal(p, &pair); err != nil {
			return nil, apperr.Validation(fmt.Sprintf("invalid batch item at index %d", i))
		}
		targets[i] = models.BatchDeleteTarget{Category: strings.TrimSpace(pair.Category), ItemID: pair.ItemID}
	}
	return batchDelete{Targets: targets}, nil
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
