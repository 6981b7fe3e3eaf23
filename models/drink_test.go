package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRecipeUnmarshalAcceptsListAndObject(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload string
		want    int
	}{
		{"list", `[{"color":"blue","name":"Water","parts":1},{"color":"brown","name":"Coffee","parts":2}]`, 2},
		{"single object", `{"color":"white","name":"Milk","parts":2}`, 1},
		{"empty list", `[]`, 0},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var recipe Recipe
			if err := json.Unmarshal([]byte(tt.payload), &recipe); err != nil {
				t.Fatalf("unmarshal %s: %v", tt.payload, err)
			}
			if len(recipe) != tt.want {
				t.Fatalf("expected %d ingredients, got %d", tt.want, len(recipe))
			}
		})
	}
}

func TestRecipeUnmarshalRejectsScalars(t *testing.T) {
	t.Parallel()

	var recipe Recipe
	if err := json.Unmarshal([]byte(`"espresso"`), &recipe); err == nil {
		t.Fatal("expected error for scalar recipe")
	}
}

func TestRecipeValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		recipe  Recipe
		wantErr bool
	}{
		{"valid", Recipe{{Color: "blue", Name: "Water", Parts: 1}}, false},
		{"empty", Recipe{}, true},
		{"missing name", Recipe{{Color: "blue", Parts: 1}}, true},
		{"missing color", Recipe{{Name: "Water", Parts: 1}}, true},
		{"zero parts", Recipe{{Color: "blue", Name: "Water"}}, true},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.recipe.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %t", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTitle(t *testing.T) {
	t.Parallel()

	if err := ValidateTitle("Latte"); err != nil {
		t.Fatalf("expected valid title, got %v", err)
	}
	if err := ValidateTitle("   "); err != ErrTitleRequired {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
	if err := ValidateTitle(strings.Repeat("a", MaxTitleLength+1)); err != ErrTitleTooLong {
		t.Fatalf("expected ErrTitleTooLong, got %v", err)
	}
}

func TestShortOmitsIngredientNames(t *testing.T) {
	t.Parallel()

	drink := Drink{ID: 3, Title: "Latte", Recipe: Recipe{{Color: "white", Name: "Milk", Parts: 2}}}
	body, err := json.Marshal(drink.Short())
	if err != nil {
		t.Fatalf("marshal short form: %v", err)
	}
	if strings.Contains(string(body), "name") || strings.Contains(string(body), "Milk") {
		t.Fatalf("expected short form without ingredient names, got %s", body)
	}

	long := drink.Long()
	if long.Recipe[0].Name != "Milk" || long.Recipe[0].Parts != 2 || long.Recipe[0].Color != "white" {
		t.Fatalf("expected long form to keep ingredient, got %+v", long.Recipe[0])
	}
}
