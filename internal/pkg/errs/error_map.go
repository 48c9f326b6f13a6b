/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Message: "Failed to process uploaded data.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Messaging and Group Business Logic Errors
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long."},
	ErrMessageTypeInvalid:    {Code: ErrMessageTypeInvalid, Message: "Unsupported message type."},
	ErrMessageNotFound:       {Code: ErrMessageNotFound, Message: "Message not found.", Status: http.StatusNotFound},
	ErrGroupNotFound:         {Code: ErrGroupNotFound, Message: "Group not found.", Status: http.StatusNotFound},
	ErrNotGroupMember:        {Code: ErrNotGroupMember, Message: "You are not a member of this group.", Status: http.StatusForbidden},
	ErrGroupNameInvalid:      {Code: ErrGroupNameInvalid, Message: "Invalid group name."},
	ErrAlreadyGroupMember:    {Code: ErrAlreadyGroupMember, Message: "User is already a member of this group."},
	ErrFileSizeTooLarge:      {Code: ErrFileSizeTooLarge, Message: "File is too large."},
	ErrFileTypeInvalid:       {Code: ErrFileTypeInvalid, Message: "This file type is not allowed."},
	ErrFileStorageFailed:     {Code: ErrFileStorageFailed, Message: "File upload failed. Please try again."},

	// 3xxx: User, Session, and Security Errors
	ErrUnauthorized:       {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrTokenInvalid:       {Code: ErrTokenInvalid, Message: "Your session has expired. Please sign in again.", Status: http.StatusUnauthorized},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Incorrect username or password.", Status: http.StatusUnauthorized},
	ErrInvalidUsername:    {Code: ErrInvalidUsername, Message: "Invalid username."},
	ErrInvalidPassword:    {Code: ErrInvalidPassword, Message: "Invalid password."},
	ErrUserAlreadyExists:  {Code: ErrUserAlreadyExists, Message: "Username or email is already taken."},
	ErrUserNotFound:       {Code: ErrUserNotFound, Message: "Account not found.", Status: http.StatusNotFound},
	ErrInviteCodeInvalid:  {Code: ErrInviteCodeInvalid, Message: "Invalid or expired invitation code."},
	ErrAdminRequired:      {Code: ErrAdminRequired, Message: "Administrator access required.", Status: http.StatusForbidden},
	ErrSessionReplaced:    {Code: ErrSessionReplaced, Message: "You were signed in on another device."},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
