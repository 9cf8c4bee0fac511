package client

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrTrailingSlash    = errors.New("chronik: url cannot end with '/'")
	ErrInvalidURLScheme = errors.New("chronik: url must start with 'https://' or 'http://'")
	ErrInvalidProtobuf  = errors.New("chronik: invalid protobuf")
	ErrInvalidArgument  = errors.New("chronik: invalid argument")

	ErrClosed                = errors.New("chronik: websocket closed")
	ErrUnexpectedTextMessage = errors.New("chronik: unexpected text message")
)

// ChronikError is an error reported by the indexer itself, decoded from the
// body of a non-200 response.
type ChronikError struct {
	StatusCode  int
	Path        string
	ErrorCode   string
	Msg         string
	IsUserError bool
}

func (e *ChronikError) Error() string {
	return fmt.Sprintf("chronik error (%d) getting %s: %s", e.StatusCode, e.Path, e.Msg)
}
