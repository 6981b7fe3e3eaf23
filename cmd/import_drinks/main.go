package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"coffeeshop/internal/config"
	"coffeeshop/internal/db"
	applog "coffeeshop/internal/log"
	"coffeeshop/models"
)

type menuEntry struct {
	Title  string        `json:"title"`
	Recipe models.Recipe `json:"recipe"`
}

func main() {
	reset := flag.Bool("reset", false, "drop and recreate the drinks table before importing")
	flag.Parse()

	menuPath := "drinks.json"
	if flag.NArg() > 0 {
		menuPath = flag.Arg(0)
	}

	if err := run(context.Background(), menuPath, *reset); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, menuPath string, reset bool) error {
	if strings.TrimSpace(menuPath) == "" {
		return fmt.Errorf("menu path must not be empty")
	}

	entries, err := readMenu(menuPath)
	if err != nil {
		return fmt.Errorf("read menu: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applog.SetLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("set log level: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close(database)

	if reset {
		applog.Info(ctx, "resetting drinks table")
		err = db.Reset(database)
	} else {
		err = db.AutoMigrate(database)
	}
	if err != nil {
		return fmt.Errorf("prepare schema: %w", err)
	}

	imported, err := importDrinks(ctx, database, entries)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Imported %d drinks from %s\n", imported, filepath.Base(menuPath))
	return nil
}

func readMenu(path string) ([]menuEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries []menuEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s contains no drinks", filepath.Base(path))
	}
	return entries, nil
}

// importDrinks upserts every entry by title. Each entry commits on its own so
// a bad record stops the run without undoing the ones before it.
func importDrinks(ctx context.Context, database *gorm.DB, entries []menuEntry) (int, error) {
	imported := 0
	for idx, entry := range entries {
		title := strings.TrimSpace(entry.Title)
		if err := models.ValidateTitle(title); err != nil {
			return imported, fmt.Errorf("record %d: %w", idx+1, err)
		}
		if err := entry.Recipe.Validate(); err != nil {
			return imported, fmt.Errorf("record %d (%s): %w", idx+1, title, err)
		}

		if err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var existing models.Drink
			err := tx.Where("title = ?", title).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				drink := models.Drink{Title: title, Recipe: entry.Recipe}
				if err := tx.Create(&drink).Error; err != nil {
					return fmt.Errorf("create drink %q: %w", title, err)
				}
				return nil
			}
			if err != nil {
				return fmt.Errorf("find drink %q: %w", title, err)
			}

			if err := tx.Model(&existing).Select("recipe").Updates(models.Drink{Recipe: entry.Recipe}).Error; err != nil {
				return fmt.Errorf("update drink %q: %w", title, err)
			}
			return nil
		}); err != nil {
			return imported, fmt.Errorf("record %d (%s): %w", idx+1, title, err)
		}

		applog.Debug(ctx, "drink imported", "title", title, "ingredients", len(entry.Recipe))
		imported++
	}
	return imported, nil
}
