package domain

// Code is a machine-readable error code.
type Code string

const (
	CodePlayerNotFound      Code = "PLAYER_NOT_FOUND"
	CodeRoomNotFound        Code = "ROOM_NOT_FOUND"
	CodeRoomFull            Code = "ROOM_FULL"
	CodePlayerNotInRoom     Code = "PLAYER_NOT_IN_ROOM"
	CodeRelayDeliveryFailed Code = "RELAY_DELIVERY_FAILED"
)

// Error is a recoverable registry condition. Errors match with errors.Is by
// code, so wrapped instances compare equal to the sentinels below.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

var (
	ErrPlayerNotFound      = &Error{Code: CodePlayerNotFound, Message: "player not found"}
	ErrRoomNotFound        = &Error{Code: CodeRoomNotFound, Message: "room not found"}
	ErrRoomFull            = &Error{Code: CodeRoomFull, Message: "room is full"}
	ErrPlayerNotInRoom     = &Error{Code: CodePlayerNotInRoom, Message: "player not in room"}
	ErrRelayDeliveryFailed = &Error{Code: CodeRelayDeliveryFailed, Message: "relay delivery failed"}
)

// WrapDeliveryFailure tags a transmission failure with the relay delivery
// code while preserving the underlying cause.
func WrapDeliveryFailure(cause error) *Error {
	return &Error{Code: CodeRelayDeliveryFailed, Message: "relay delivery failed", Cause: cause}
}
