package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	applog "coffeeshop/internal/log"
	"coffeeshop/internal/store"
	"coffeeshop/models"
)

const maxBodyBytes = 1 << 20

// DrinkStore is the persistence the drink handlers depend on.
type DrinkStore interface {
	List(ctx context.Context) ([]models.Drink, error)
	Create(ctx context.Context, title string, recipe models.Recipe) (models.Drink, error)
	Update(ctx context.Context, id uint, changes store.DrinkUpdate) (models.Drink, error)
	Delete(ctx context.Context, id uint) error
}

// Drinks serves the drink resource endpoints.
type Drinks struct {
	store DrinkStore
}

// New returns the drink handlers backed by s.
func New(s DrinkStore) *Drinks {
	return &Drinks{store: s}
}

type drinkPayload struct {
	Title  *string        `json:"title"`
	Recipe *models.Recipe `json:"recipe"`
}

type shortDrinksResponse struct {
	Success bool                `json:"success"`
	Drinks  []models.ShortDrink `json:"drinks"`
}

type longDrinksResponse struct {
	Success bool               `json:"success"`
	Drinks  []models.LongDrink `json:"drinks"`
}

type deleteResponse struct {
	Success bool `json:"success"`
	Delete  uint `json:"delete"`
}

// List handles GET /drinks with the public projection.
func (h *Drinks) List(w http.ResponseWriter, r *http.Request) {
	drinks, ok := h.loadAll(w, r)
	if !ok {
		return
	}

	resp := shortDrinksResponse{Success: true, Drinks: make([]models.ShortDrink, 0, len(drinks))}
	for _, drink := range drinks {
		resp.Drinks = append(resp.Drinks, drink.Short())
	}
	writeJSON(w, http.StatusOK, resp)
}

// Detail handles GET /drinks-detail with the full projection.
func (h *Drinks) Detail(w http.ResponseWriter, r *http.Request) {
	drinks, ok := h.loadAll(w, r)
	if !ok {
		return
	}

	resp := longDrinksResponse{Success: true, Drinks: make([]models.LongDrink, 0, len(drinks))}
	for _, drink := range drinks {
		resp.Drinks = append(resp.Drinks, drink.Long())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Drinks) loadAll(w http.ResponseWriter, r *http.Request) ([]models.Drink, bool) {
	ctx := r.Context()
	drinks, err := h.store.List(ctx)
	if err != nil {
		applog.Error(ctx, "failed to list drinks", "error", err)
		WriteError(w, http.StatusInternalServerError)
		return nil, false
	}
	if len(drinks) == 0 {
		applog.Debug(ctx, "no drinks available")
		WriteError(w, http.StatusNotFound)
		return nil, false
	}
	return drinks, true
}

// Create handles POST /drinks.
func (h *Drinks) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}
	if payload.Title == nil || payload.Recipe == nil {
		applog.Debug(ctx, "create drink missing fields", "hasTitle", payload.Title != nil, "hasRecipe", payload.Recipe != nil)
		WriteError(w, http.StatusUnprocessableEntity)
		return
	}

	drink, err := h.store.Create(ctx, *payload.Title, *payload.Recipe)
	if err != nil {
		writeStoreError(ctx, w, err, "create drink")
		return
	}

	applog.Info(ctx, "drink created", "id", drink.ID, "title", drink.Title)
	writeJSON(w, http.StatusOK, longDrinksResponse{Success: true, Drinks: []models.LongDrink{drink.Long()}})
}

// Update handles PATCH /drinks/{id}. Omitted fields keep their value.
func (h *Drinks) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := drinkID(w, r)
	if !ok {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	drink, err := h.store.Update(ctx, id, store.DrinkUpdate{Title: payload.Title, Recipe: payload.Recipe})
	if err != nil {
		writeStoreError(ctx, w, err, "update drink", "id", id)
		return
	}

	applog.Info(ctx, "drink updated", "id", drink.ID)
	writeJSON(w, http.StatusOK, longDrinksResponse{Success: true, Drinks: []models.LongDrink{drink.Long()}})
}

// Delete handles DELETE /drinks/{id}. A second delete of the same id is a 404.
func (h *Drinks) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := drinkID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(ctx, id); err != nil {
		writeStoreError(ctx, w, err, "delete drink", "id", id)
		return
	}

	applog.Info(ctx, "drink deleted", "id", id)
	writeJSON(w, http.StatusOK, deleteResponse{Success: true, Delete: id})
}

func drinkID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		applog.Debug(r.Context(), "invalid drink identifier", "identifier", raw)
		WriteError(w, http.StatusNotFound)
		return 0, false
	}
	return uint(id), true
}

func decodePayload(w http.ResponseWriter, r *http.Request) (drinkPayload, bool) {
	var payload drinkPayload
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := decoder.Decode(&payload)
	if err == nil {
		// The body must hold exactly one JSON value.
		if extra := decoder.Decode(&struct{}{}); !errors.Is(extra, io.EOF) {
			err = errors.New("unexpected data after drink payload")
		}
	}
	if err != nil {
		applog.Debug(r.Context(), "invalid drink payload", "error", err)
		WriteError(w, http.StatusUnprocessableEntity)
		return drinkPayload{}, false
	}
	return payload, true
}

func writeStoreError(ctx context.Context, w http.ResponseWriter, err error, op string, args ...any) {
	args = append(args, "error", err)
	switch {
	case errors.Is(err, store.ErrNotFound):
		applog.Debug(ctx, op+": not found", args...)
		WriteError(w, http.StatusNotFound)
	case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrInvalid):
		applog.Debug(ctx, op+": rejected", args...)
		WriteError(w, http.StatusUnprocessableEntity)
	default:
		applog.Error(ctx, "failed to "+op, args...)
		WriteError(w, http.StatusInternalServerError)
	}
}
