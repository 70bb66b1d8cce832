package models

// ProductSearchResult annotates a product with its cosine similarity to the
// query vector. Higher scores are more relevant.
type ProductSearchResult struct {
	Product Product `json:"product"`
	Score   float64 `json:"score"`
}

// Names returns the product names of the result set in order.
func Names(results []ProductSearchResult) []string {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Product.Name
	}
	return names
}

// FindByName returns the product with the given name from the result set.
// Matching is by exact name equality.
func FindByName(results []ProductSearchResult, name string) (Product, bool) {
	for _, r := range results {
		if r.Product.Name == name {
			return r.Product, true
		}
	}
	return Product{}, false
}
