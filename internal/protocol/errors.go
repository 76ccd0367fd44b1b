package protocol

import "errors"

var (
	ErrEmptyText     = errors.New("protocol: empty text message")
	ErrTextTooLong   = errors.New("protocol: encoded datagram exceeds text limit")
	ErrNotDatagram   = errors.New("protocol: text carries no valid datagram")
	ErrInvalidSender = errors.New("protocol: invalid sender node id")
)
