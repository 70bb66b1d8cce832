package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/rasphia/rasphia/internal"
	"github.com/rasphia/rasphia/pkg/curation"
	"github.com/rasphia/rasphia/pkg/models"
)

var log = internal.GetLogger()

// CurateRequest is the request body of the curate endpoints.
type CurateRequest struct {
	ChatHistory models.ChatHistory `json:"chatHistory"`
}

// CurateHandler godoc
//
//	@Summary		Runs a structured curation turn
//	@Description	turns the chat history into a grounded recommendation message
//	@Tags			curate
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CurateRequest	true	"Chat history"
//	@Success		200		{object}	models.Message
//	@Failure		400		{object}	APIError	"Bad Request"
//	@Failure		500		{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/curate [post]
func CurateHandler(appState *models.AppState) http.HandlerFunc {
	curator := curation.NewCurator(appState)
	return func(w http.ResponseWriter, r *http.Request) {
		var request CurateRequest
		if err := decodeJSON(r, &request); err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}

		message, err := curator.Curate(r.Context(), request.ChatHistory)
		if err != nil {
			if errors.Is(err, models.ErrEmptyQuery) {
				renderError(w, err, http.StatusBadRequest)
				return
			}
			renderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := encodeJSON(w, message); err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// CurateStreamHandler godoc
//
//	@Summary		Runs a streaming curation turn
//	@Description	streams the reply as plain text tokens; only the latest user message is used
//	@Tags			curate
//	@Accept			json
//	@Produce		plain
//	@Param			body	body		CurateRequest	true	"Chat history"
//	@Success		200		{string}	string			"token stream"
//	@Failure		400		{object}	APIError		"Bad Request"
//	@Router			/api/v1/curate/stream [post]
func CurateStreamHandler(appState *models.AppState) http.HandlerFunc {
	curator := curation.NewCurator(appState)
	return func(w http.ResponseWriter, r *http.Request) {
		var request CurateRequest
		if err := decodeJSON(r, &request); err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			renderError(w, errors.New("streaming unsupported by transport"), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")

		var headerSent bool
		err := curator.CurateStream(r.Context(), request.ChatHistory,
			func(_ context.Context, chunk []byte) error {
				if !headerSent {
					w.WriteHeader(http.StatusOK)
					headerSent = true
				}
				if _, err := w.Write(chunk); err != nil {
					return err
				}
				flusher.Flush()
				return nil
			})
		if err != nil {
			if errors.Is(err, models.ErrEmptyQuery) && !headerSent {
				renderError(w, err, http.StatusBadRequest)
				return
			}
			// The stream may be partially written; nothing to render.
			log.Errorf("curate stream failed: %v", err)
		}
	}
}
