package server

import (
	"errors"
	"net/http"

	"github.com/rasphia/rasphia/pkg/auth"
	"github.com/rasphia/rasphia/pkg/models"
)

type SendOTPRequest struct {
	Phone string `json:"phone" validate:"required"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone" validate:"required"`
	OTP   string `json:"otp"   validate:"required"`
}

type VerifyOTPResponse struct {
	Token string `json:"token"`
}

// SendOTPHandler issues a one-time code for the phone number. Delivering the
// code to the user (SMS, WhatsApp) is an external concern; the issued code is
// logged for operators running without a delivery channel.
func SendOTPHandler(appState *models.AppState, otpStore *auth.OTPStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request SendOTPRequest
		if err := decodeJSON(r, &request); err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}
		if err := validate.Struct(request); err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}

		code, err := otpStore.Issue(request.Phone)
		if err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}
		log.Infof("issued OTP for %s: %s", request.Phone, code)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(OKResponse))
	}
}

// VerifyOTPHandler checks a one-time code and, when auth is configured,
// returns a bearer token for subsequent API calls.
func VerifyOTPHandler(appState *models.AppState, otpStore *auth.OTPStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request VerifyOTPRequest
		if err := decodeJSON(r, &request); err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}
		if err := validate.Struct(request); err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}

		if err := otpStore.Verify(request.Phone, request.OTP); err != nil {
			switch {
			case errors.Is(err, auth.ErrOTPNotFound),
				errors.Is(err, auth.ErrOTPExpired),
				errors.Is(err, auth.ErrOTPInvalid):
				renderError(w, err, http.StatusBadRequest)
			default:
				renderError(w, err, http.StatusInternalServerError)
			}
			return
		}

		response := VerifyOTPResponse{}
		if appState.Config.Auth.Secret != "" {
			response.Token = auth.GenerateJWT(appState.Config)
		}

		if err := encodeJSON(w, response); err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}
