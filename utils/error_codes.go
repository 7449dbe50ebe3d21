package utils

// Error codes attached to every error response so clients can branch without
// parsing the human readable message.
const (
	ErrorTokenAuthFail   = 10001
	ErrorInvalidRequest  = 10002
	ErrorNotFound        = 10003
	ErrorNotPostOwner    = 10004
	ErrorStorageFailure  = 10005
	ErrorDocumentFailure = 10006
	ErrorAuthFailure     = 10007
)
