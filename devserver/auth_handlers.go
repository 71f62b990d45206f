package devserver

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/dream1290/dbxui-sub000/auth"
	apperrors "github.com/dream1290/dbxui-sub000/internal/errors"
	"github.com/dream1290/dbxui-sub000/users"
)

const forgotPasswordMessage = "If the email is registered, a reset link has been sent"

type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int         `json:"expires_in"`
	User         *users.User `json:"user,omitempty"`
}

func (s *Server) newTokenResponse(pair *auth.TokenPair, withUser bool) tokenResponse {
	resp := tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(s.auth.AccessTokenExpiry().Seconds()),
	}
	if withUser {
		resp.User = pair.User
	}
	return resp
}

// LoginHandler takes a form body with the email in "username"
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeValidation(w, "body", apperrors.FieldError{Field: "username", Message: "Field required"})
			return
		}
		email := r.PostForm.Get("username")
		password := r.PostForm.Get("password")

		var missing []apperrors.FieldError
		if email == "" {
			missing = append(missing, apperrors.FieldError{Field: "username", Message: "Field required"})
		}
		if password == "" {
			missing = append(missing, apperrors.FieldError{Field: "password", Message: "Field required"})
		}
		if len(missing) > 0 {
			writeValidation(w, "body", missing...)
			return
		}

		pair, err := s.auth.Login(email, password)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, s.newTokenResponse(pair, true))
	}
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params auth.RegisterParameters
		if err := decodeJSON(w, r, &params); err != nil {
			writeError(w, r, err)
			return
		}
		pair, err := s.auth.Register(params)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, s.newTokenResponse(pair, true))
	}
}

// RefreshHandler only accepts the refresh token as a query parameter
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength != 0 {
			writeValidation(w, "query", apperrors.FieldError{
				Field:   "refresh_token",
				Message: "refresh_token must be sent as a query parameter",
			})
			return
		}
		refreshToken := r.URL.Query().Get("refresh_token")
		if refreshToken == "" {
			writeValidation(w, "query", apperrors.FieldError{Field: "refresh_token", Message: "Field required"})
			return
		}

		pair, err := s.auth.Refresh(refreshToken)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, s.newTokenResponse(pair, false))
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.auth.Logout(requestClaims(r)); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Successfully logged out"})
	}
}

// ForgotPasswordHandler answers the same way whether or not the email is
// registered
func (s *Server) ForgotPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.URL.Query().Get("email")
		if email == "" {
			writeValidation(w, "query", apperrors.FieldError{Field: "email", Message: "Field required"})
			return
		}

		resetToken, user, err := s.auth.ForgotPassword(email)
		if err != nil {
			log.Error().Err(err).Msg("forgot password failed")
		} else if user != nil {
			s.resetNotifier(r.Context(), user, resetToken)
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: forgotPasswordMessage})
	}
}

func (s *Server) ResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var missing []apperrors.FieldError
		if q.Get("token") == "" {
			missing = append(missing, apperrors.FieldError{Field: "token", Message: "Field required"})
		}
		if q.Get("new_password") == "" {
			missing = append(missing, apperrors.FieldError{Field: "new_password", Message: "Field required"})
		}
		if len(missing) > 0 {
			writeValidation(w, "query", missing...)
			return
		}

		if err := s.auth.ResetPassword(q.Get("token"), q.Get("new_password")); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Password has been reset"})
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, requestUser(r))
	}
}
