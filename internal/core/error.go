package core

// Error codes
const (
	ErrGameNotFound      = "GAME_NOT_FOUND"
	ErrSaveNotFound      = "SAVE_NOT_FOUND"
	ErrInvalidMove       = "INVALID_MOVE"
	ErrNotHumanTurn      = "NOT_HUMAN_TURN"
	ErrGameOver          = "GAME_OVER"
	ErrCaptureInProgress = "CAPTURE_IN_PROGRESS"
	ErrRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrInvalidContent    = "INVALID_CONTENT_TYPE"
	ErrInvalidRequest    = "INVALID_REQUEST"
	ErrInvalidPosition   = "INVALID_POSITION"
	ErrStorageDisabled   = "STORAGE_DISABLED"
	ErrUnavailable       = "UNAVAILABLE"
	ErrInternalError     = "INTERNAL_ERROR"
)
