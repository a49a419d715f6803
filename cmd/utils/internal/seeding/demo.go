package seeding

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cafetab/cafetab/internal/billing"
	"github.com/cafetab/cafetab/internal/catalog"
	"github.com/cafetab/cafetab/internal/tables"
)

const seededBy = "demo-seed"

// SeedDemo inserts a small working dataset: a menu, four tables and one
// active billing period, enough to take orders immediately.
func SeedDemo(ctx context.Context, db *mongo.Database) error {
	if err := seedOfferings(ctx, db); err != nil {
		return err
	}
	if err := seedTables(ctx, db); err != nil {
		return err
	}
	return seedPeriod(ctx, db)
}

func seedOfferings(ctx context.Context, db *mongo.Database) error {
	demo := []struct {
		name        string
		category    string
		price       float64
		temperature string
		extraShot   bool
		oatMilk     bool
	}{
		{"Espresso", "coffee", 80, catalog.TempHot, true, false},
		{"Americano", "coffee", 100, catalog.TempBoth, true, true},
		{"Latte", "coffee", 130, catalog.TempBoth, true, true},
		{"Cappuccino", "coffee", 130, catalog.TempHot, true, true},
		{"Cold Brew", "coffee", 150, catalog.TempIcedOnly, false, true},
		{"Chai", "tea", 110, catalog.TempBoth, false, true},
		{"Lemonade", "other", 90, catalog.TempIcedOnly, false, false},
	}

	docs := make([]interface{}, 0, len(demo))
	for _, d := range demo {
		off := catalog.NewOffering()
		off.Name = d.name
		off.Category = d.category
		off.BasePrice = d.price
		off.Temperature = d.temperature
		off.AllowExtraShot = d.extraShot
		off.AllowOatMilk = d.oatMilk
		off.BeforeCreate()
		off.CreatedBy = seededBy
		docs = append(docs, off)
	}

	if _, err := db.Collection("offerings").InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert offerings: %w", err)
	}
	return nil
}

func seedTables(ctx context.Context, db *mongo.Database) error {
	docs := make([]interface{}, 0, 4)
	for i := 1; i <= 4; i++ {
		table := tables.NewTable()
		table.Number = fmt.Sprintf("T%d", i)
		table.Active = true
		table.BeforeCreate()
		table.CreatedBy = seededBy
		docs = append(docs, table)
	}

	if _, err := db.Collection("tables").InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert tables: %w", err)
	}
	return nil
}

func seedPeriod(ctx context.Context, db *mongo.Database) error {
	period := billing.NewPeriod()
	period.Name = "Demo period"
	period.Active = true
	period.BeforeCreate()
	period.CreatedBy = seededBy

	if _, err := db.Collection("billing_periods").InsertOne(ctx, period); err != nil {
		return fmt.Errorf("insert billing period: %w", err)
	}
	return nil
}
