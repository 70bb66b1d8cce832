package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/rasphia/rasphia/pkg/models"
	"github.com/rasphia/rasphia/pkg/tasks"
)

const OKResponse = "OK"

var listProductsLimit = 50

// CreateProductHandler godoc
//
//	@Summary		Adds a product to the catalog
//	@Description	the embedding is computed out of band after the write
//	@Tags			product
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.CreateProductRequest	true	"Product"
//	@Success		201		{object}	models.Product
//	@Failure		400		{object}	APIError	"Bad Request"
//	@Failure		500		{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/products [post]
func CreateProductHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request models.CreateProductRequest
		if err := decodeJSON(r, &request); err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}
		if err := validate.Struct(request); err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}

		product := &models.Product{}
		if err := copier.Copy(product, &request); err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := appState.CatalogStore.CreateProduct(r.Context(), product); err != nil {
			renderStorageError(w, err)
			return
		}

		tasks.PublishProductEmbedding(appState, models.ProductEmbeddingTask{UUID: product.UUID})

		w.WriteHeader(http.StatusCreated)
		if err := encodeJSON(w, product); err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetProductHandler godoc
//
//	@Summary	Returns a product by UUID
//	@Tags		product
//	@Produce	json
//	@Param		productUUID	path		string	true	"Product UUID"
//	@Success	200			{object}	models.Product
//	@Failure	404			{object}	APIError	"Not Found"
//	@Router		/api/v1/products/{productUUID} [get]
func GetProductHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productUUID := parseUUIDFromURL(r, w, "productUUID")
		if productUUID == uuid.Nil {
			return
		}

		product, err := appState.CatalogStore.GetProduct(r.Context(), productUUID)
		if err != nil {
			renderStorageError(w, err)
			return
		}

		if err := encodeJSON(w, product); err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// ListProductsHandler godoc
//
//	@Summary	Lists catalog products
//	@Tags		product
//	@Produce	json
//	@Param		limit	query		integer	false	"Page size"
//	@Param		offset	query		integer	false	"Page offset"
//	@Success	200		{object}	[]models.Product
//	@Router		/api/v1/products [get]
func ListProductsHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := extractQueryStringValueToInt[int](r, "limit")
		if err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}
		offset, err := extractQueryStringValueToInt[int](r, "offset")
		if err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}
		if limit <= 0 {
			limit = listProductsLimit
		}

		products, err := appState.CatalogStore.ListProducts(r.Context(), limit, offset)
		if err != nil {
			renderStorageError(w, err)
			return
		}

		if err := encodeJSON(w, products); err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// UpdateProductHandler godoc
//
//	@Summary		Partially updates a product
//	@Description	any update nulls the stored embedding; it is recomputed out of band
//	@Tags			product
//	@Accept			json
//	@Produce		json
//	@Param			productUUID	path		string						true	"Product UUID"
//	@Param			body		body		models.UpdateProductRequest	true	"Fields to update"
//	@Success		200			{object}	models.Product
//	@Failure		400			{object}	APIError	"Bad Request"
//	@Failure		404			{object}	APIError	"Not Found"
//	@Router			/api/v1/products/{productUUID} [patch]
func UpdateProductHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productUUID := parseUUIDFromURL(r, w, "productUUID")
		if productUUID == uuid.Nil {
			return
		}

		var request models.UpdateProductRequest
		if err := decodeJSON(r, &request); err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}
		if err := validate.Struct(request); err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}

		product, err := appState.CatalogStore.GetProduct(r.Context(), productUUID)
		if err != nil {
			renderStorageError(w, err)
			return
		}

		// Overlay only the fields the caller set.
		err = copier.CopyWithOption(product, &request, copier.Option{IgnoreEmpty: true})
		if err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}

		// The descriptive fields changed; the stored vector is now stale.
		product.Embedding = nil

		if err := appState.CatalogStore.UpdateProduct(r.Context(), product); err != nil {
			renderStorageError(w, err)
			return
		}

		tasks.PublishProductEmbedding(appState, models.ProductEmbeddingTask{UUID: product.UUID})

		if err := encodeJSON(w, product); err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// DeleteProductHandler godoc
//
//	@Summary	Deletes a product
//	@Tags		product
//	@Param		productUUID	path		string	true	"Product UUID"
//	@Success	200			{string}	string	"OK"
//	@Failure	404			{object}	APIError	"Not Found"
//	@Router		/api/v1/products/{productUUID} [delete]
func DeleteProductHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productUUID := parseUUIDFromURL(r, w, "productUUID")
		if productUUID == uuid.Nil {
			return
		}

		if err := appState.CatalogStore.DeleteProduct(r.Context(), productUUID); err != nil {
			renderStorageError(w, err)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(OKResponse))
	}
}

// AddReviewHandler godoc
//
//	@Summary	Adds a review to a product
//	@Tags		product
//	@Accept		json
//	@Param		productUUID	path		string					true	"Product UUID"
//	@Param		body		body		models.AddReviewRequest	true	"Review"
//	@Success	200			{string}	string	"OK"
//	@Failure	400			{object}	APIError	"Bad Request"
//	@Failure	404			{object}	APIError	"Not Found"
//	@Router		/api/v1/products/{productUUID}/reviews [post]
func AddReviewHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productUUID := parseUUIDFromURL(r, w, "productUUID")
		if productUUID == uuid.Nil {
			return
		}

		var request models.AddReviewRequest
		if err := decodeJSON(r, &request); err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}
		if err := validate.Struct(request); err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}

		review := models.Review{
			AuthorName: request.AuthorName,
			Rating:     request.Rating,
			Comment:    request.Comment,
			Date:       time.Now(),
		}
		if err := appState.CatalogStore.AddReview(r.Context(), productUUID, review); err != nil {
			renderStorageError(w, err)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(OKResponse))
	}
}

// RecomputeEmbeddingHandler godoc
//
//	@Summary		Triggers an embedding recompute for a product
//	@Description	the recompute runs out of band; this returns immediately
//	@Tags			product
//	@Param			productUUID	path		string	true	"Product UUID"
//	@Success		202			{string}	string	"OK"
//	@Failure		404			{object}	APIError	"Not Found"
//	@Router			/api/v1/products/{productUUID}/embedding [post]
func RecomputeEmbeddingHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productUUID := parseUUIDFromURL(r, w, "productUUID")
		if productUUID == uuid.Nil {
			return
		}

		// Confirm the product exists before queueing work for it.
		if _, err := appState.CatalogStore.GetProduct(r.Context(), productUUID); err != nil {
			renderStorageError(w, err)
			return
		}

		tasks.PublishProductEmbedding(appState, models.ProductEmbeddingTask{
			UUID:  productUUID,
			Force: true,
		})

		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(OKResponse))
	}
}
