/*
Package handler provides the development server's HTTP handlers and routing.

This file implements the auth endpoints: signup, login, and the profile
lookup the client's session store resolves identities through.
*/
package handler

import (
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"parley/internal/app/chat"
	"parley/internal/pkg/auth/jwt"
	"parley/internal/pkg/errs"
	"parley/internal/pkg/logx"
	"parley/internal/pkg/req"
	"parley/internal/pkg/resp"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type signupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

type tokenOutput struct {
	AccessToken string `json:"access_token"`
}

// validatePassword enforces the shared password length rule.
func validatePassword(password string) *errs.CustomError {
	length := utf8.RuneCountInString(password)
	if length < 6 || length > 50 {
		return errs.NewError(errs.ErrInvalidPassword)
	}
	return nil
}

// HandleSignup creates an account and issues its first access token.
func HandleSignup(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input signupInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		input.Name = strings.TrimSpace(input.Name)
		input.Email = strings.ToLower(strings.TrimSpace(input.Email))

		if input.Name == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidName))
			return
		}
		if !emailRegex.MatchString(input.Email) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidEmail))
			return
		}
		if customErr := validatePassword(input.Password); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		user, err := deps.Store.CreateUser(input.Name, input.Email, input.Avatar, hashedPassword)
		if err != nil {
			if customErr, ok := err.(*errs.CustomError); ok {
				logx.Warn("signup conflict", "email", input.Email)
				resp.RespondError(w, r, customErr)
				return
			}
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		token, err := jwt.GenerateToken(&jwt.Payload{UserID: user.ID, Email: user.Email}, deps.Config.JWTSecret, jwt.SessionExpiration)
		if err != nil {
			logx.Error(err, "failed to generate token after signup")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondOK(w, r, tokenOutput{AccessToken: token})
	}
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and issues an access token. A missing
// account and a wrong password answer identically.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input loginInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		email := strings.ToLower(strings.TrimSpace(input.Email))

		user, passwordHash, err := deps.Store.UserByEmail(email)
		if err != nil {
			logx.Warn("login: account lookup failed", "email", email)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if err := bcrypt.CompareHashAndPassword(passwordHash, []byte(input.Password)); err != nil {
			logx.Warn("login: password mismatch", "email", email)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		token, err := jwt.GenerateToken(&jwt.Payload{UserID: user.ID, Email: user.Email}, deps.Config.JWTSecret, jwt.SessionExpiration)
		if err != nil {
			logx.Error(err, "login: jwt generation failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondOK(w, r, tokenOutput{AccessToken: token})
	}
}

// HandleProfile returns the account behind the presented token. An account
// that disappeared since the token was issued reads as not logged in.
func HandleProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthenticated))
			return
		}

		user, err := deps.Store.User(identity.UserID)
		if err != nil {
			logx.Warn("profile: account vanished", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthenticated))
			return
		}

		resp.RespondOK(w, r, user)
	}
}

// currentUser resolves the authenticated account for the chat handlers.
func currentUser(deps *AppDeps, r *http.Request) (chat.User, *errs.CustomError) {
	identity := jwt.GetPayloadFromContext(r)
	if identity == nil {
		return chat.User{}, errs.NewError(errs.ErrUnauthenticated)
	}
	user, err := deps.Store.User(identity.UserID)
	if err != nil {
		return chat.User{}, errs.NewError(errs.ErrUnauthenticated)
	}
	return user, nil
}
