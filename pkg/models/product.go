package models

import (
	"time"

	"github.com/google/uuid"
)

// Recipient is the audience a product is intended for.
type Recipient string

const (
	RecipientHim    Recipient = "Him"
	RecipientHer    Recipient = "Her"
	RecipientThem   Recipient = "Them"
	RecipientAnyone Recipient = "Anyone"
)

var ValidRecipients = map[Recipient]bool{
	RecipientHim:    true,
	RecipientHer:    true,
	RecipientThem:   true,
	RecipientAnyone: true,
}

// Product is a catalog record. Name is the business key used to resolve
// recommendations back to records; it is treated as unique within a catalog.
// Embedding is nil when the record is stale and awaiting recompute. Records
// with a nil embedding are excluded from retrieval.
type Product struct {
	UUID        uuid.UUID `json:"uuid"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Brand       string    `json:"brand,omitempty"`
	Category    string    `json:"category,omitempty"`
	Price       float64   `json:"price,omitempty"`
	Story       string    `json:"story,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Occasion    []string  `json:"occasion,omitempty"`
	Recipient   Recipient `json:"recipient,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Embedding   []float32 `json:"embedding,omitempty"`
	Reviews     []Review  `json:"reviews,omitempty"`
}

type Review struct {
	AuthorName string    `json:"author_name"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	Date       time.Time `json:"date"`
}

type CreateProductRequest struct {
	Name        string    `json:"name"        validate:"required"`
	Description string    `json:"description" validate:"required"`
	Brand       string    `json:"brand"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"       validate:"gte=0"`
	Story       string    `json:"story"`
	Tags        []string  `json:"tags"`
	Occasion    []string  `json:"occasion"`
	Recipient   Recipient `json:"recipient"   validate:"omitempty,oneof=Him Her Them Anyone"`
	ImageURL    string    `json:"image_url"`
}

// UpdateProductRequest carries a partial update. Zero-valued fields are left
// unchanged; any update nulls the stored embedding so it is recomputed lazily.
type UpdateProductRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Brand       string    `json:"brand"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"     validate:"gte=0"`
	Story       string    `json:"story"`
	Tags        []string  `json:"tags"`
	Occasion    []string  `json:"occasion"`
	Recipient   Recipient `json:"recipient" validate:"omitempty,oneof=Him Her Them Anyone"`
	ImageURL    string    `json:"image_url"`
}

type AddReviewRequest struct {
	AuthorName string `json:"author_name" validate:"required"`
	Rating     int    `json:"rating"      validate:"required,gte=1,lte=5"`
	Comment    string `json:"comment"`
}
