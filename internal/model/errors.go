package model

import "errors"

var (
	// ErrInvalidSettings is returned when settings can not drive a nesting run.
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrInvalidPart is returned for part types with unusable geometry or quantity.
	ErrInvalidPart = errors.New("invalid part")
)
