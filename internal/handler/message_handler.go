/*
Package handler provides HTTP handler functions for message history retrieval and search.

Live routing is at-most-once: offline recipients miss real-time delivery and
catch up through these endpoints.
*/
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"echochat/internal/app/store"
	"echochat/internal/pkg/auth/jwt"
	"echochat/internal/pkg/errs"
	"echochat/internal/pkg/logx"
	"echochat/internal/pkg/resp"
)

// HandleDirectHistory returns the direct-message history between the
// authenticated user and the user named in the URL, oldest first.
func HandleDirectHistory(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		otherUserID := chi.URLParam(r, "userId")
		if otherUserID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		messages, err := deps.Messages.DirectHistory(r.Context(), payload.UserID, otherUserID)
		if err != nil {
			logx.Error(err, "failed to fetch direct history", "user_id", payload.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"messages": messages})
	}
}

// HandleGroupHistory returns the message history of a group the authenticated
// user belongs to, oldest first.
func HandleGroupHistory(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		groupID := chi.URLParam(r, "groupId")
		if groupID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		member, customErr := deps.Groups.IsMember(groupID, payload.UserID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if !member {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotGroupMember))
			return
		}

		messages, err := deps.Messages.GroupHistory(r.Context(), groupID)
		if err != nil {
			logx.Error(err, "failed to fetch group history", "group_id", groupID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"messages": messages})
	}
}

// HandleSearchMessages filters message history by text, peer, group, type, and
// date range. Peer searches are scoped to conversations the requester took part in.
func HandleSearchMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		query := r.URL.Query()

		params := store.SearchParams{
			RequesterID: payload.UserID,
			Query:       query.Get("query"),
			PeerID:      query.Get("userId"),
			GroupID:     query.Get("groupId"),
			MessageType: query.Get("messageType"),
		}

		if startStr := query.Get("startDate"); startStr != "" {
			start, err := time.Parse(time.RFC3339, startStr)
			if err != nil {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			params.StartDate = start
		}

		if endStr := query.Get("endDate"); endStr != "" {
			end, err := time.Parse(time.RFC3339, endStr)
			if err != nil {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			params.EndDate = end
		}

		messages, err := deps.Messages.Search(r.Context(), params)
		if err != nil {
			logx.Error(err, "message search failed", "user_id", payload.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"messages": messages})
	}
}
