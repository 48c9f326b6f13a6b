/*
Package handler provides HTTP handler functions for the admin surface:
user management, message moderation, group management, and invitation codes.
*/
package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"echochat/internal/app/store"
	"echochat/internal/pkg/auth/jwt"
	"echochat/internal/pkg/errs"
	"echochat/internal/pkg/logx"
	"echochat/internal/pkg/req"
	"echochat/internal/pkg/resp"
)

// adminFromContext extracts the authenticated payload and checks the admin flag.
func adminFromContext(r *http.Request) (*jwt.Payload, *errs.CustomError) {
	payload := jwt.GetPayloadFromContext(r)
	if payload == nil {
		return nil, errs.NewError(errs.ErrUnauthorized)
	}
	if !payload.IsAdmin {
		return nil, errs.NewError(errs.ErrAdminRequired)
	}
	return payload, nil
}

// HandleListUsers returns every user account.
func HandleListUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, customErr := adminFromContext(r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		users, err := deps.Users.List(r.Context())
		if err != nil {
			logx.Error(err, "failed to list users")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"users": users})
	}
}

// HandleGetUser returns a single user account by id.
func HandleGetUser(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, customErr := adminFromContext(r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		account, err := deps.Users.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
				return
			}
			logx.Error(err, "failed to fetch user")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"user": account})
	}
}

type UpdateUserInput struct {
	IsAdmin bool `json:"isAdmin"`
	IsVIP   bool `json:"isVIP"`
}

// HandleUpdateUser updates the admin/VIP flags of an account. Flag changes take
// effect at the next login; an issued token keeps its claims for its lifetime.
func HandleUpdateUser(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, customErr := adminFromContext(r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input UpdateUserInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		account, err := deps.Users.UpdateFlags(r.Context(), chi.URLParam(r, "id"), input.IsAdmin, input.IsVIP)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
				return
			}
			logx.Error(err, "failed to update user")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"user": account})
	}
}

// HandleDeleteUser removes an account, its sent messages, and its group
// memberships, and force-closes any live session it holds.
func HandleDeleteUser(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, customErr := adminFromContext(r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		userID := chi.URLParam(r, "id")

		if err := deps.Users.Delete(r.Context(), userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
				return
			}
			logx.Error(err, "failed to delete user", "user_id", userID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		deps.Groups.RemoveUser(userID)

		if conn, online := deps.Hub.Registry().Lookup(userID); online {
			conn.Kick("Your account was removed.")
			deps.Hub.Disconnect(userID, conn)
		}

		resp.RespondSuccess(w, r, map[string]any{"deleted": true})
	}
}

// HandleListMessages returns every recorded message, including soft-deleted ones.
func HandleListMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, customErr := adminFromContext(r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		messages, err := deps.Messages.ListAll(r.Context())
		if err != nil {
			logx.Error(err, "failed to list messages")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"messages": messages})
	}
}

// HandleDeleteMessage soft-deletes a message so it disappears from history retrieval.
func HandleDeleteMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, customErr := adminFromContext(r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		messageID := chi.URLParam(r, "id")

		if err := deps.Messages.SoftDelete(r.Context(), messageID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrMessageNotFound))
				return
			}
			logx.Error(err, "failed to delete message", "message_id", messageID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"deleted": true})
	}
}

type CreateGroupInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPublic    bool   `json:"isPublic"`
}

// HandleCreateGroup creates a new group owned by the requesting admin.
func HandleCreateGroup(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, customErr := adminFromContext(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input CreateGroupInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		info, customErr := deps.Groups.Create(input.Name, input.Description, payload.UserID, input.IsPublic)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"group": info})
	}
}

// HandleListGroups returns every group with its membership.
func HandleListGroups(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, customErr := adminFromContext(r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"groups": deps.Groups.List()})
	}
}

type GroupMemberInput struct {
	UserID string `json:"userId"`
}

// HandleAddGroupMember adds a user to a group.
func HandleAddGroupMember(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, customErr := adminFromContext(r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input GroupMemberInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := deps.Groups.AddMember(chi.URLParam(r, "id"), input.UserID); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"added": true})
	}
}

// HandleRemoveGroupMember removes a user from a group.
func HandleRemoveGroupMember(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, customErr := adminFromContext(r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input GroupMemberInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := deps.Groups.RemoveMember(chi.URLParam(r, "id"), input.UserID); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"removed": true})
	}
}

// HandleCreateInvitation generates a fresh registration invitation code.
func HandleCreateInvitation(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, customErr := adminFromContext(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		invitation, err := deps.Users.CreateInvitation(r.Context(), payload.UserID)
		if err != nil {
			logx.Error(err, "failed to create invitation code")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"invitation": invitation})
	}
}
