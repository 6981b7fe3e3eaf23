package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"coffeeshop/internal/db/mock"
	"coffeeshop/models"
)

func writeMenu(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drinks.json")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write menu: %v", err)
	}
	return path
}

func TestReadMenu(t *testing.T) {
	entries, err := readMenu(writeMenu(t, `[
		{"title":"Cortado","recipe":[{"name":"Espresso","color":"brown","parts":1},{"name":"Milk","color":"white","parts":1}]},
		{"title":"Water","recipe":{"name":"Water","color":"blue","parts":1}}
	]`))
	if err != nil {
		t.Fatalf("readMenu returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if len(entries[1].Recipe) != 1 || entries[1].Recipe[0].Name != "Water" {
		t.Fatalf("expected single ingredient recipe to decode, got %+v", entries[1].Recipe)
	}

	if _, err := readMenu(writeMenu(t, `[]`)); err == nil {
		t.Fatal("expected error for empty menu")
	}
	if _, err := readMenu(writeMenu(t, `{"title":`)); err == nil {
		t.Fatal("expected error for malformed menu")
	}
	if _, err := readMenu(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestImportDrinksUpsertsByTitle(t *testing.T) {
	ctx := context.Background()
	database, err := mock.New(ctx)
	if err != nil {
		t.Fatalf("mock.New returned error: %v", err)
	}

	entries := []menuEntry{
		{Title: "Latte", Recipe: models.Recipe{{Name: "Oat Milk", Color: "beige", Parts: 4}}},
		{Title: " Cortado ", Recipe: models.Recipe{{Name: "Espresso", Color: "brown", Parts: 1}}},
	}
	imported, err := importDrinks(ctx, database, entries)
	if err != nil {
		t.Fatalf("importDrinks returned error: %v", err)
	}
	if imported != 2 {
		t.Fatalf("expected 2 imported drinks, got %d", imported)
	}

	var count int64
	if err := database.Model(&models.Drink{}).Count(&count).Error; err != nil {
		t.Fatalf("count drinks: %v", err)
	}
	if want := int64(len(mock.Drinks) + 1); count != want {
		t.Fatalf("expected %d drinks, got %d", want, count)
	}

	var latte models.Drink
	if err := database.Where("title = ?", "Latte").First(&latte).Error; err != nil {
		t.Fatalf("fetch latte: %v", err)
	}
	if len(latte.Recipe) != 1 || latte.Recipe[0].Name != "Oat Milk" {
		t.Fatalf("expected latte recipe to be replaced, got %+v", latte.Recipe)
	}

	var cortado models.Drink
	if err := database.Where("title = ?", "Cortado").First(&cortado).Error; err != nil {
		t.Fatalf("expected trimmed title to be stored: %v", err)
	}
}

func TestImportDrinksStopsAtInvalidRecord(t *testing.T) {
	ctx := context.Background()
	database, err := mock.New(ctx)
	if err != nil {
		t.Fatalf("mock.New returned error: %v", err)
	}

	entries := []menuEntry{
		{Title: "Cortado", Recipe: models.Recipe{{Name: "Espresso", Color: "brown", Parts: 1}}},
		{Title: "Nothing", Recipe: models.Recipe{}},
		{Title: "Macchiato", Recipe: models.Recipe{{Name: "Espresso", Color: "brown", Parts: 1}}},
	}
	imported, err := importDrinks(ctx, database, entries)
	if err == nil {
		t.Fatal("expected error for empty recipe")
	}
	if imported != 1 {
		t.Fatalf("expected first record to be kept, got %d imported", imported)
	}

	var count int64
	if err := database.Model(&models.Drink{}).Where("title = ?", "Macchiato").Count(&count).Error; err != nil {
		t.Fatalf("count drinks: %v", err)
	}
	if count != 0 {
		t.Fatal("expected records after the failure to be skipped")
	}
}

func TestRunRejectsEmptyPath(t *testing.T) {
	if err := run(context.Background(), "  ", false); err == nil {
		t.Fatal("expected error for empty menu path")
	}
}
