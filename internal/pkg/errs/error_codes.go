/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrFormParseFailed indicates failure to parse multipart or URL-encoded form data.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Messaging and Group Business Logic Errors
const (
	// ErrMessageContentTooLong indicates that the user's message content exceeded the maximum length limit.
	ErrMessageContentTooLong = 2001

	// ErrMessageTypeInvalid indicates that an unsupported message type was supplied.
	ErrMessageTypeInvalid = 2002

	// ErrMessageNotFound indicates that the referenced message does not exist.
	ErrMessageNotFound = 2003

	// ErrGroupNotFound indicates that the target group does not exist.
	ErrGroupNotFound = 2101

	// ErrNotGroupMember indicates that the sender is not a member of the target group.
	ErrNotGroupMember = 2102

	// ErrGroupNameInvalid indicates that an invalid group name was provided during creation.
	ErrGroupNameInvalid = 2103

	// ErrAlreadyGroupMember indicates that the user being added already belongs to the group.
	ErrAlreadyGroupMember = 2104

	// ErrFileSizeTooLarge indicates that the attachment exceeds the maximum allowed size.
	ErrFileSizeTooLarge = 2201

	// ErrFileTypeInvalid indicates that the attachment file type is not permitted.
	ErrFileTypeInvalid = 2202

	// ErrFileStorageFailed indicates a failure while generating a storage URL or saving a file.
	ErrFileStorageFailed = 2203
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrUnauthorized indicates that the request lacks a valid authenticated identity.
	ErrUnauthorized = 3001

	// ErrTokenInvalid indicates that the supplied credential is malformed, expired, or has a bad signature.
	ErrTokenInvalid = 3002

	// ErrInvalidCredentials indicates a failed username/password combination at login.
	ErrInvalidCredentials = 3003

	// ErrInvalidUsername indicates that the supplied username does not meet format requirements.
	ErrInvalidUsername = 3004

	// ErrInvalidPassword indicates that the supplied password does not meet format requirements.
	ErrInvalidPassword = 3005

	// ErrUserAlreadyExists indicates that the username or email is already registered.
	ErrUserAlreadyExists = 3006

	// ErrUserNotFound indicates that the referenced user account does not exist.
	ErrUserNotFound = 3007

	// ErrInviteCodeInvalid indicates that the supplied invitation code is unknown or already used.
	ErrInviteCodeInvalid = 3008

	// ErrAdminRequired indicates that the operation requires an administrator identity.
	ErrAdminRequired = 3009

	// ErrSessionReplaced indicates that the current connection was superseded by a newer one.
	ErrSessionReplaced = 3010
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
