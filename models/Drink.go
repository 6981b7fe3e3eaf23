package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength bounds Drink.Title, matching the column size.
const MaxTitleLength = 80

var (
	ErrTitleRequired = errors.New("title is required")
	ErrTitleTooLong  = fmt.Errorf("title must be at most %d characters", MaxTitleLength)
	ErrRecipeEmpty   = errors.New("recipe must contain at least one ingredient")
)

// Drink is the only persisted entity. Recipe is stored as JSON text.
type Drink struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"type:varchar(80);uniqueIndex;not null" json:"title"`
	Recipe    Recipe    `gorm:"type:text;not null;serializer:json" json:"recipe"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Ingredient is one line of a recipe.
type Ingredient struct {
	Color string `json:"color"`
	Name  string `json:"name"`
	Parts int    `json:"parts"`
}

// Recipe is an ordered list of ingredients.
type Recipe []Ingredient

// UnmarshalJSON accepts either a list of ingredients or a single ingredient
// object, which is wrapped into a one-element list.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var single Ingredient
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*r = Recipe{single}
		return nil
	}

	var list []Ingredient
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*r = Recipe(list)
	return nil
}

// Validate reports the first malformed ingredient, if any.
func (r Recipe) Validate() error {
	if len(r) == 0 {
		return ErrRecipeEmpty
	}
	for i, ingredient := range r {
		if strings.TrimSpace(ingredient.Name) == "" {
			return fmt.Errorf("ingredient %d: name is required", i)
		}
		if strings.TrimSpace(ingredient.Color) == "" {
			return fmt.Errorf("ingredient %d: color is required", i)
		}
		if ingredient.Parts < 1 {
			return fmt.Errorf("ingredient %d: parts must be positive", i)
		}
	}
	return nil
}

// ValidateTitle checks presence and length of a drink title.
func ValidateTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return ErrTitleRequired
	}
	if utf8.RuneCountInString(trimmed) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

// ShortIngredient is the public projection of an ingredient; the name is withheld.
type ShortIngredient struct {
	Color string `json:"color"`
	Parts int    `json:"parts"`
}

// ShortDrink is the public projection of a drink.
type ShortDrink struct {
	ID     uint              `json:"id"`
	Title  string            `json:"title"`
	Recipe []ShortIngredient `json:"recipe"`
}

// LongDrink is the privileged projection of a drink.
type LongDrink struct {
	ID     uint         `json:"id"`
	Title  string       `json:"title"`
	Recipe []Ingredient `json:"recipe"`
}

// Short projects the drink for public viewing.
func (d Drink) Short() ShortDrink {
	recipe := make([]ShortIngredient, 0, len(d.Recipe))
	for _, ingredient := range d.Recipe {
		recipe = append(recipe, ShortIngredient{Color: ingredient.Color, Parts: ingredient.Parts})
	}
	return ShortDrink{ID: d.ID, Title: d.Title, Recipe: recipe}
}

// Long projects the drink including ingredient names.
func (d Drink) Long() LongDrink {
	recipe := make([]Ingredient, len(d.Recipe))
	copy(recipe, d.Recipe)
	return LongDrink{ID: d.ID, Title: d.Title, Recipe: recipe}
}
