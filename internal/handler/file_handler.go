package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"echochat/internal/app/chat"
	"echochat/internal/pkg/auth/jwt"
	"echochat/internal/pkg/errs"
	"echochat/internal/pkg/req"
	"echochat/internal/pkg/resp"
)

// PresignUploadInput defines the JSON input structure for generating an upload URL.
type PresignUploadInput struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
}

// HandlePresignUpload creates an HTTP HandlerFunc to generate a time-limited,
// pre-signed URL for an attachment upload. The object key is prefixed by the
// attachment category (images/videos/files), mirroring the message type the
// upload will be sent as.
func HandlePresignUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input PresignUploadInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := chat.ValidateFileSize(input.FileSize); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := chat.ValidateFileType(input.FileName, input.MimeType); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		category, messageType := chat.CategoryForMIME(strings.ToLower(input.MimeType))
		fileExt := strings.ToLower(filepath.Ext(input.FileName))
		fileKey := fmt.Sprintf("%s/%s%s", category, uuid.New().String(), fileExt)

		url, err := deps.StorageService.PresignUpload(
			r.Context(),
			fileKey,
			input.MimeType,
			input.FileSize,
			chat.PresignedURLDuration,
		)

		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		data := map[string]any{
			"presignedUrl": url,
			"fileKey":      fileKey,
			"fileName":     input.FileName,
			"messageType":  messageType,
		}
		resp.RespondSuccess(w, r, data)
	}
}

// HandlePresignDownload creates an HTTP HandlerFunc to generate a time-limited,
// pre-signed URL for downloading a previously uploaded attachment.
func HandlePresignDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		fileKey := r.URL.Query().Get("k")
		if fileKey == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		url, err := deps.StorageService.PresignDownload(r.Context(), fileKey, chat.PresignedURLDuration)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"presignedUrl": url})
	}
}
