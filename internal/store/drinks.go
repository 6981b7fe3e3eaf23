// Package store is the persistence boundary for drinks. Handlers never touch
// the gorm handle directly.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"coffeeshop/models"
)

var (
	// ErrNotFound is returned when no drink has the requested id.
	ErrNotFound = errors.New("drink not found")
	// ErrConflict is returned when a title is already taken.
	ErrConflict = errors.New("drink title already exists")
	// ErrInvalid is returned when a title or recipe fails validation.
	ErrInvalid = errors.New("invalid drink")
)

// DrinkUpdate carries the fields of a partial update. Nil fields keep their
// stored value.
type DrinkUpdate struct {
	Title  *string
	Recipe *models.Recipe
}

// Drinks provides row-level CRUD over the drinks table.
type Drinks struct {
	db *gorm.DB
}

// NewDrinks returns a store backed by db. db should be opened with
// TranslateError enabled so duplicate titles surface as ErrConflict.
func NewDrinks(db *gorm.DB) *Drinks {
	return &Drinks{db: db}
}

// List returns every drink ordered by id. An empty slice is not an error.
func (s *Drinks) List(ctx context.Context) ([]models.Drink, error) {
	var drinks []models.Drink
	if err := s.db.WithContext(ctx).Order("id asc").Find(&drinks).Error; err != nil {
		return nil, fmt.Errorf("list drinks: %w", err)
	}
	return drinks, nil
}

// Get loads a single drink.
func (s *Drinks) Get(ctx context.Context, id uint) (models.Drink, error) {
	var drink models.Drink
	if err := s.db.WithContext(ctx).First(&drink, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Drink{}, ErrNotFound
		}
		return models.Drink{}, fmt.Errorf("load drink %d: %w", id, err)
	}
	return drink, nil
}

// Create inserts a new drink and returns it with its assigned id.
func (s *Drinks) Create(ctx context.Context, title string, recipe models.Recipe) (models.Drink, error) {
	title = strings.TrimSpace(title)
	if err := validate(title, recipe); err != nil {
		return models.Drink{}, err
	}

	drink := models.Drink{Title: title, Recipe: recipe}
	if err := s.db.WithContext(ctx).Create(&drink).Error; err != nil {
		return models.Drink{}, translate(err, "create drink")
	}
	return drink, nil
}

// Update applies the non-nil fields of changes to the drink with the given id.
func (s *Drinks) Update(ctx context.Context, id uint, changes DrinkUpdate) (models.Drink, error) {
	drink, err := s.Get(ctx, id)
	if err != nil {
		return models.Drink{}, err
	}

	columns := make([]string, 0, 2)
	if changes.Title != nil {
		title := strings.TrimSpace(*changes.Title)
		if err := models.ValidateTitle(title); err != nil {
			return models.Drink{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		drink.Title = title
		columns = append(columns, "title")
	}
	if changes.Recipe != nil {
		if err := changes.Recipe.Validate(); err != nil {
			return models.Drink{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		drink.Recipe = *changes.Recipe
		columns = append(columns, "recipe")
	}
	if len(columns) == 0 {
		return drink, nil
	}

	result := s.db.WithContext(ctx).
		Model(&models.Drink{ID: id}).
		Select(columns).
		Updates(models.Drink{Title: drink.Title, Recipe: drink.Recipe})
	if result.Error != nil {
		return models.Drink{}, translate(result.Error, fmt.Sprintf("update drink %d", id))
	}
	if result.RowsAffected == 0 {
		return models.Drink{}, ErrNotFound
	}
	return drink, nil
}

// Delete removes the drink permanently.
func (s *Drinks) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Drink{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete drink %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func validate(title string, recipe models.Recipe) error {
	if err := models.ValidateTitle(title); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := recipe.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func translate(err error, op string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}
