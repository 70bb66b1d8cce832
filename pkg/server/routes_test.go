package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/rasphia/rasphia/config"
	"github.com/rasphia/rasphia/pkg/auth"
	"github.com/rasphia/rasphia/pkg/curation"
	"github.com/rasphia/rasphia/pkg/models"
	"github.com/rasphia/rasphia/pkg/store/memstore"
)

type fixedLLM struct {
	completion string
	chunks     []string
}

func (f *fixedLLM) Call(ctx context.Context, _ string, options ...llms.CallOption) (string, error) {
	opts := llms.CallOptions{}
	for _, option := range options {
		option(&opts)
	}
	if opts.StreamingFunc != nil {
		for _, chunk := range f.chunks {
			if err := opts.StreamingFunc(ctx, []byte(chunk)); err != nil {
				return "", err
			}
		}
	}
	return f.completion, nil
}

func (f *fixedLLM) GetTokenCount(_ string) (int, error) { return 0, nil }

func (f *fixedLLM) Init(_ context.Context, _ *config.Config) error { return nil }

type fixedEmbedder struct {
	vector []float32
}

func (f *fixedEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = f.vector
	}
	return embeddings, nil
}

func (f *fixedEmbedder) Init(_ context.Context, _ *config.Config) error { return nil }

// chiRouterForOTP mounts the OTP handlers against a caller-owned store so
// tests can inspect issued codes.
func chiRouterForOTP(appState *models.AppState, otpStore *auth.OTPStore) http.Handler {
	router := chi.NewRouter()
	router.Post("/send", SendOTPHandler(appState, otpStore))
	router.Post("/verify", VerifyOTPHandler(appState, otpStore))
	return router
}

func newServerTestAppState(t *testing.T, llmClient models.LLMClient) *models.AppState {
	t.Helper()
	catalogStore := memstore.NewMemoryCatalogStore(3)
	require.NoError(t, catalogStore.CreateProduct(context.Background(), &models.Product{
		Name:        "Monsoon Memoir",
		Description: "Petrichor, vetiver and old paper",
		Category:    "Perfume",
		Price:       4200,
		Embedding:   []float32{0.1, 0.1, 0.9},
	}))

	return &models.AppState{
		Config:           &config.Config{},
		CatalogStore:     catalogStore,
		LLMClient:        llmClient,
		EmbeddingsClient: &fixedEmbedder{vector: []float32{0.1, 0.1, 0.9}},
	}
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestHealthz(t *testing.T) {
	appState := newServerTestAppState(t, &fixedLLM{})
	router := setupRouter(appState)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, config.VersionString, res.Header().Get(versionHeader))
}

func TestCurateHandler(t *testing.T) {
	completion, err := json.Marshal(curation.CuratedResponse{
		Response: "Monsoon Memoir fits that mood. Who is it for?",
		Products: []string{"Monsoon Memoir"},
	})
	require.NoError(t, err)

	appState := newServerTestAppState(t, &fixedLLM{completion: string(completion)})
	router := setupRouter(appState)

	res := postJSON(t, router, "/api/v1/curate", CurateRequest{
		ChatHistory: models.ChatHistory{
			{Author: models.AuthorUser, Text: "something that smells like rain"},
		},
	})

	require.Equal(t, http.StatusOK, res.Code)

	var message models.Message
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &message))
	assert.Equal(t, models.AuthorAI, message.Author)
	require.Len(t, message.Products, 1)
	assert.Equal(t, "Monsoon Memoir", message.Products[0].Name)
}

func TestCurateHandler_EmptyQuery(t *testing.T) {
	appState := newServerTestAppState(t, &fixedLLM{})
	router := setupRouter(appState)

	testCases := map[string]any{
		"no history":   CurateRequest{},
		"no user turn": CurateRequest{ChatHistory: models.ChatHistory{{Author: models.AuthorAI, Text: "hello"}}},
	}
	for name, body := range testCases {
		t.Run(name, func(t *testing.T) {
			res := postJSON(t, router, "/api/v1/curate", body)
			assert.Equal(t, http.StatusBadRequest, res.Code)
		})
	}
}

func TestCurateHandler_FallbackIsHTTP200(t *testing.T) {
	// Malformed completion absorbs into a fallback message, not an error.
	appState := newServerTestAppState(t, &fixedLLM{completion: "not json"})
	router := setupRouter(appState)

	res := postJSON(t, router, "/api/v1/curate", CurateRequest{
		ChatHistory: models.ChatHistory{
			{Author: models.AuthorUser, Text: "something that smells like rain"},
		},
	})

	require.Equal(t, http.StatusOK, res.Code)

	var message models.Message
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &message))
	assert.Equal(t, curation.FallbackUnclearText, message.Text)
	assert.Empty(t, message.Products)
}

func TestCurateStreamHandler(t *testing.T) {
	appState := newServerTestAppState(t, &fixedLLM{chunks: []string{"A scent ", "of rain."}})
	router := setupRouter(appState)

	res := postJSON(t, router, "/api/v1/curate/stream", CurateRequest{
		ChatHistory: models.ChatHistory{
			{Author: models.AuthorUser, Text: "something that smells like rain"},
		},
	})

	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "A scent of rain.", res.Body.String())
	assert.Contains(t, res.Header().Get("Content-Type"), "text/plain")
}

func TestCurateStreamHandler_EmptyQuery(t *testing.T) {
	appState := newServerTestAppState(t, &fixedLLM{})
	router := setupRouter(appState)

	res := postJSON(t, router, "/api/v1/curate/stream", CurateRequest{})
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestProductCRUD(t *testing.T) {
	appState := newServerTestAppState(t, &fixedLLM{})
	router := setupRouter(appState)

	// Create
	res := postJSON(t, router, "/api/v1/products", models.CreateProductRequest{
		Name:        "Gilded Hour",
		Description: "A brass desk clock with a quiet tick",
		Category:    "Gift",
		Price:       5600,
		Recipient:   models.RecipientAnyone,
	})
	require.Equal(t, http.StatusCreated, res.Code)

	var created models.Product
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &created))
	assert.Equal(t, "Gilded Hour", created.Name)

	// Get
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+created.UUID.String(), nil)
	getRes := httptest.NewRecorder()
	router.ServeHTTP(getRes, req)
	require.Equal(t, http.StatusOK, getRes.Code)

	// List
	req = httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	listRes := httptest.NewRecorder()
	router.ServeHTTP(listRes, req)
	require.Equal(t, http.StatusOK, listRes.Code)
	var products []models.Product
	require.NoError(t, json.Unmarshal(listRes.Body.Bytes(), &products))
	assert.Len(t, products, 2)

	// Patch
	b, err := json.Marshal(models.UpdateProductRequest{Price: 6200})
	require.NoError(t, err)
	patchReq := httptest.NewRequest(http.MethodPatch, "/api/v1/products/"+created.UUID.String(), bytes.NewReader(b))
	patchRes := httptest.NewRecorder()
	router.ServeHTTP(patchRes, patchReq)
	require.Equal(t, http.StatusOK, patchRes.Code)

	var updated models.Product
	require.NoError(t, json.Unmarshal(patchRes.Body.Bytes(), &updated))
	assert.Equal(t, float64(6200), updated.Price)
	assert.Equal(t, "Gilded Hour", updated.Name, "unset fields stay untouched")
	assert.Nil(t, updated.Embedding, "updates null the stored vector")

	// Delete
	delReq := httptest.NewRequest(http.MethodDelete, "/api/v1/products/"+created.UUID.String(), nil)
	delRes := httptest.NewRecorder()
	router.ServeHTTP(delRes, delReq)
	require.Equal(t, http.StatusOK, delRes.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/products/"+created.UUID.String(), nil)
	getRes = httptest.NewRecorder()
	router.ServeHTTP(getRes, req)
	assert.Equal(t, http.StatusNotFound, getRes.Code)
}

func TestCreateProduct_Validation(t *testing.T) {
	appState := newServerTestAppState(t, &fixedLLM{})
	router := setupRouter(appState)

	testCases := map[string]models.CreateProductRequest{
		"missing name":        {Description: "no name"},
		"missing description": {Name: "No Description"},
		"bad recipient":       {Name: "X", Description: "Y", Recipient: "Everybody"},
		"negative price":      {Name: "X", Description: "Y", Price: -1},
	}

	for name, body := range testCases {
		t.Run(name, func(t *testing.T) {
			res := postJSON(t, router, "/api/v1/products", body)
			assert.Equal(t, http.StatusBadRequest, res.Code)
		})
	}
}

func TestAddReviewHandler(t *testing.T) {
	appState := newServerTestAppState(t, &fixedLLM{})
	router := setupRouter(appState)

	product, err := appState.CatalogStore.GetProductByName(context.Background(), "Monsoon Memoir")
	require.NoError(t, err)

	res := postJSON(t, router, "/api/v1/products/"+product.UUID.String()+"/reviews", models.AddReviewRequest{
		AuthorName: "Asha",
		Rating:     5,
		Comment:    "Smells like the first rain.",
	})
	require.Equal(t, http.StatusOK, res.Code)

	got, err := appState.CatalogStore.GetProduct(context.Background(), product.UUID)
	require.NoError(t, err)
	require.Len(t, got.Reviews, 1)
	assert.Equal(t, "Asha", got.Reviews[0].AuthorName)

	t.Run("rating out of range", func(t *testing.T) {
		res := postJSON(t, router, "/api/v1/products/"+product.UUID.String()+"/reviews", models.AddReviewRequest{
			AuthorName: "Asha",
			Rating:     6,
		})
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
}

func TestRecomputeEmbeddingHandler(t *testing.T) {
	appState := newServerTestAppState(t, &fixedLLM{})
	router := setupRouter(appState)

	product, err := appState.CatalogStore.GetProductByName(context.Background(), "Monsoon Memoir")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/"+product.UUID.String()+"/embedding", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	assert.Equal(t, http.StatusAccepted, res.Code)

	t.Run("unknown product", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products/00000000-0000-0000-0000-000000000001/embedding", nil)
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)
		assert.Equal(t, http.StatusNotFound, res.Code)
	})
}

func TestAuthRequired(t *testing.T) {
	appState := newServerTestAppState(t, &fixedLLM{})
	appState.Config.Auth = config.AuthConfig{Secret: "test-secret", Required: true}
	router := setupRouter(appState)

	t.Run("rejects without token", func(t *testing.T) {
		res := postJSON(t, router, "/api/v1/curate", CurateRequest{})
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("accepts with token", func(t *testing.T) {
		tokenAuth := jwtauth.New(auth.JwtAlg, []byte("test-secret"), nil)
		_, tokenString, err := tokenAuth.Encode(nil)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)
		assert.Equal(t, http.StatusOK, res.Code)
	})

	t.Run("otp routes stay open", func(t *testing.T) {
		res := postJSON(t, router, "/api/v1/auth/otp/send", SendOTPRequest{Phone: "+919800000001"})
		assert.Equal(t, http.StatusOK, res.Code)
	})
}

func TestOTPFlow(t *testing.T) {
	appState := newServerTestAppState(t, &fixedLLM{})
	appState.Config.Auth.Secret = "test-secret"

	otpStore := auth.NewOTPStore(0)
	router := chiRouterForOTP(appState, otpStore)

	res := postJSON(t, router, "/send", SendOTPRequest{Phone: "+919800000001"})
	require.Equal(t, http.StatusOK, res.Code)

	// The handler does not expose the code; fetch a known one instead.
	code, err := otpStore.Issue("+919800000001")
	require.NoError(t, err)

	res = postJSON(t, router, "/verify", VerifyOTPRequest{Phone: "+919800000001", OTP: "000000"})
	if code != "000000" {
		assert.Equal(t, http.StatusBadRequest, res.Code)
	}

	res = postJSON(t, router, "/verify", VerifyOTPRequest{Phone: "+919800000001", OTP: code})
	require.Equal(t, http.StatusOK, res.Code)

	var verified VerifyOTPResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &verified))
	assert.NotEmpty(t, verified.Token)
}
