package testutils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/rasphia/rasphia/pkg/models"
)

var productCategories = []string{"Perfume", "Gift"}

var productOccasions = []string{
	"Birthday", "Anniversary", "Wedding", "Diwali", "Housewarming", "Farewell",
}

var productRecipients = []models.Recipient{
	models.RecipientHim, models.RecipientHer, models.RecipientThem, models.RecipientAnyone,
}

var scentNotes = []string{
	"vetiver", "sandalwood", "petrichor", "neroli", "oud", "jasmine",
	"bergamot", "tonka bean", "cedar", "saffron",
}

func generateTimeLastNDays(nDays int) time.Time {
	now := time.Now()
	earliest := now.Add(time.Duration(-nDays) * 24 * time.Hour)
	return gofakeit.DateRange(earliest, now)
}

// GenerateProduct returns a randomized catalog record without an embedding,
// mirroring the state of a freshly written product.
func GenerateProduct() models.Product {
	dateCreated := generateTimeLastNDays(14)
	note := scentNotes[gofakeit.Number(0, len(scentNotes)-1)]

	product := models.Product{
		UUID:        uuid.New(),
		CreatedAt:   dateCreated,
		UpdatedAt:   dateCreated,
		Name:        gofakeit.AdjectiveDescriptive() + " " + gofakeit.NounConcrete(),
		Description: fmt.Sprintf("%s with a trace of %s.", gofakeit.Sentence(6), note),
		Brand:       gofakeit.Company(),
		Category:    productCategories[gofakeit.Number(0, len(productCategories)-1)],
		Price:       float64(gofakeit.Number(500, 12000)),
		Story:       gofakeit.Sentence(12),
		Tags:        []string{note, gofakeit.AdjectiveDescriptive()},
		Occasion:    []string{productOccasions[gofakeit.Number(0, len(productOccasions)-1)]},
		Recipient:   productRecipients[gofakeit.Number(0, len(productRecipients)-1)],
		ImageURL:    gofakeit.URL(),
	}

	reviewCount := gofakeit.Number(0, 3)
	for i := 0; i < reviewCount; i++ {
		product.Reviews = append(product.Reviews, models.Review{
			AuthorName: gofakeit.Name(),
			Rating:     gofakeit.Number(1, 5),
			Comment:    gofakeit.Sentence(8),
			Date:       generateTimeLastNDays(14),
		})
	}

	return product
}

func GenerateProducts(count int) []models.Product {
	products := make([]models.Product, count)
	for i := range products {
		products[i] = GenerateProduct()
	}
	return products
}

// WriteProductFixtures writes a JSON product fixture file loadable by the
// memory catalog store.
func WriteProductFixtures(count int, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	b, err := json.MarshalIndent(GenerateProducts(count), "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, b, 0o644)
}
