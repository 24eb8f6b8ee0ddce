package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/noah-isme/rakhimart/internal/db"
	"github.com/noah-isme/rakhimart/internal/obs"
)

type seedProduct struct {
	Name        string
	Description string
	Price       string
	Stock       int32
	Materials   string
	Occasion    string
	Specs       []string
}

var catalogSeed = []struct {
	Name        string
	Description string
	Products    []seedProduct
}{
	{"Designer", "Handcrafted designer rakhis", []seedProduct{
		{"Kundan Peacock Rakhi", "Kundan stones set in a peacock motif", "249", 25, "Kundan, silk thread", "Raksha Bandhan", []string{"Adjustable thread", "Gift box included"}},
		{"Zardosi Embroidered Rakhi", "Gold zardosi work on velvet", "199.50", 18, "Velvet, zari", "Raksha Bandhan", []string{"Hand embroidered"}},
	}},
	{"Kids", "Playful rakhis for little ones", []seedProduct{
		{"Cartoon Light-up Rakhi", "Glows with a push button", "99", 40, "Plastic, cotton thread", "Raksha Bandhan", []string{"Battery included"}},
	}},
	{"Traditional", "Classic thread and bead rakhis", []seedProduct{
		{"Mauli Thread Rakhi", "Sacred red and yellow mauli", "49", 100, "Cotton mauli", "Raksha Bandhan", nil},
		{"Rudraksha Rakhi", "Single rudraksha bead on silk", "149", 30, "Rudraksha, silk thread", "Raksha Bandhan", []string{"Natural bead"}},
	}},
	{"Lumba", "Bangle style rakhis for sisters-in-law", []seedProduct{
		{"Pearl Lumba Pair", "Pearl drops on a beaded loop", "299", 12, "Faux pearl, beads", "Raksha Bandhan", []string{"Set of two"}},
	}},
}

func main() {
	_ = godotenv.Load()
	logger := obs.NewLogger("console", "info").With().Str("component", "seeder").Logger()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	q := db.New(pool)
	if err := q.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("apply schema")
	}

	for _, c := range catalogSeed {
		cat, err := q.GetCategoryByName(ctx, c.Name)
		if errors.Is(err, db.ErrNotFound) {
			cat, err = q.CreateCategory(ctx, db.CreateCategoryParams{Name: c.Name, Description: c.Description})
		}
		if err != nil {
			logger.Error().Err(err).Str("category", c.Name).Msg("seed category")
			continue
		}
		existing, err := q.CountProducts(ctx, db.ProductFilter{CategoryID: cat.ID})
		if err != nil {
			logger.Error().Err(err).Str("category", c.Name).Msg("count products")
			continue
		}
		if existing > 0 {
			logger.Info().Str("category", c.Name).Int64("products", existing).Msg("category already seeded")
			continue
		}
		for _, p := range c.Products {
			_, err := q.CreateProduct(ctx, db.UpsertProductParams{
				Name:           p.Name,
				Description:    p.Description,
				Price:          p.Price,
				Images:         []string{"/placeholder.svg"},
				CategoryID:     cat.ID,
				Stock:          p.Stock,
				Specifications: p.Specs,
				Materials:      p.Materials,
				Occasion:       p.Occasion,
			})
			if err != nil {
				logger.Error().Err(err).Str("product", p.Name).Msg("seed product")
			}
		}
		logger.Info().Str("category", c.Name).Int("products", len(c.Products)).Msg("category seeded")
	}

	if _, err := q.GetSettings(ctx); errors.Is(err, db.ErrNotFound) {
		_, err = q.UpsertSettings(ctx, db.Settings{
			DeliveryCharges:     "50",
			FreeDeliveryMinimum: "200",
			ContactPhone:        "917696400902",
			ContactEmail:        "info@rakhimart.com",
			SiteTitle:           "RakhiMart",
			SiteDescription:     "Beautiful handcrafted rakhis for your beloved siblings",
		})
		if err != nil {
			logger.Error().Err(err).Msg("seed settings")
		}
	}
	logger.Info().Msg("seeding completed")
}
