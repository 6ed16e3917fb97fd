package service

import "errors"

var (
	ErrValidation        = errors.New("validation")         // 400
	ErrNotFound          = errors.New("not found")          // 404
	ErrInvalidTransition = errors.New("invalid transition") // 400
	ErrAuthenticity      = errors.New("bad signature")      // 400, webhook only
)
