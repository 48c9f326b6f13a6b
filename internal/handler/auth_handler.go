/*
Package handler provides HTTP handler functions for user authentication and management.
*/
package handler

import (
	"errors"
	"net/http"
	"regexp"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"echochat/internal/app/db"
	"echochat/internal/app/store"
	"echochat/internal/pkg/auth/jwt"
	"echochat/internal/pkg/errs"
	"echochat/internal/pkg/logx"
	"echochat/internal/pkg/req"
	"echochat/internal/pkg/resp"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-z0-9_]{3,20}$`)
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

type RegisterInput struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Email      string `json:"email"`
	InviteCode string `json:"inviteCode,omitempty"`
}

// HandleRegister processes the request to create a new user account.
// An invitation code, when supplied, is validated and consumed atomically.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input RegisterInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !usernameRegex.MatchString(input.Username) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidUsername))
			return
		}

		if !emailRegex.MatchString(input.Email) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		passwordLen := utf8.RuneCountInString(input.Password)
		if passwordLen < 6 || passwordLen > 50 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPassword))
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		account, err := deps.Users.Create(r.Context(), input.Username, input.Email, string(hashedPassword))
		if err != nil {
			if db.IsUniqueViolation(err) {
				logx.Warn("registration conflict: username or email already exists", "username", input.Username)
				resp.RespondError(w, r, errs.NewError(errs.ErrUserAlreadyExists))
				return
			}

			logx.Error(err, "failed to create user in database")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if input.InviteCode != "" {
			if err := deps.Users.ConsumeInvitation(r.Context(), input.InviteCode, account.ID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					resp.RespondError(w, r, errs.NewError(errs.ErrInviteCodeInvalid))
					return
				}
				logx.Error(err, "failed to consume invitation code", "user_id", account.ID)
			}
		}

		resp.RespondSuccess(w, r, map[string]any{
			"user": account,
		})
	}
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin verifies the credentials and issues the 24h identity token used
// to authenticate the WebSocket handshake.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		account, err := deps.Users.GetByUsername(r.Context(), input.Username)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
				return
			}
			logx.Error(err, "failed to look up user at login")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if err := deps.Users.TouchLastActive(r.Context(), account.ID); err != nil {
			logx.Error(err, "login: failed to update last_active_at", "user_id", account.ID)
		}

		payload := &jwt.Payload{
			UserID:   account.ID,
			Username: account.Username,
			IsAdmin:  account.IsAdmin,
			IsVIP:    account.IsVIP,
		}

		tokenString, err := jwt.GenerateToken(payload, deps.Config.JWTSecret, jwt.UserIdentityExpiration)
		if err != nil {
			logx.Error(err, "failed to generate token at login")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"token": tokenString,
			"user":  account,
		})
	}
}
