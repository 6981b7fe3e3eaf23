package mock

import (
	"context"
	"fmt"
	"sync/atomic"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"coffeeshop/internal/db"
	applog "coffeeshop/internal/log"
	"coffeeshop/models"
)

var instance atomic.Int64

// Drinks is the menu New seeds into the database.
var Drinks = []models.Drink{
	{
		Title: "Water",
		Recipe: models.Recipe{
			{Color: "blue", Name: "Water", Parts: 1},
		},
	},
	{
		Title: "Latte",
		Recipe: models.Recipe{
			{Color: "brown", Name: "Espresso", Parts: 1},
			{Color: "white", Name: "Steamed Milk", Parts: 3},
		},
	},
	{
		Title: "Flat White",
		Recipe: models.Recipe{
			{Color: "brown", Name: "Ristretto", Parts: 2},
			{Color: "ivory", Name: "Microfoam", Parts: 2},
		},
	},
}

// New returns an in-memory sqlite database seeded with a small drinks menu.
// Every call gets its own database.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	dsn := fmt.Sprintf("file:coffeeshop-mock-%d?mode=memory&cache=shared", instance.Add(1))
	opts := db.Options()
	opts.Logger = logger.Default.LogMode(logger.Silent)
	database, err := gorm.Open(sqlite.Open(dsn), opts)
	if err != nil {
		return nil, err
	}

	if err := database.AutoMigrate(&models.Drink{}); err != nil {
		return nil, err
	}

	if err := seed(ctx, database); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

func seed(ctx context.Context, db *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database", "drinks", len(Drinks))

	for _, drink := range Drinks {
		drinkCopy := models.Drink{Title: drink.Title, Recipe: append(models.Recipe(nil), drink.Recipe...)}
		if err := db.WithContext(ctx).Create(&drinkCopy).Error; err != nil {
			return err
		}
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}
