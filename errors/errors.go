package errors

import "fmt"

var (
	ErrTransport      = fmt.Errorf("transport error")
	ErrDecode         = fmt.Errorf("malformed inbound frame")
	ErrHistoryFetch   = fmt.Errorf("history fetch failed")
	ErrPrecondition   = fmt.Errorf("precondition violated")
	ErrImageFetch     = fmt.Errorf("protected image fetch failed")
	ErrRequest        = fmt.Errorf("request failed")
	ErrInvalidState   = fmt.Errorf("invalid connection state")
	ErrClosed         = fmt.Errorf("connection closed")
	ErrBlobNotFound   = fmt.Errorf("blob not found")
	ErrTokenMalformed = fmt.Errorf("token is malformed")
	ErrUpload         = fmt.Errorf("media upload failed")
)
