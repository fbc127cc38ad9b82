package repository

import "errors"

var (
	ErrAttemptNotFound  = errors.New("checkout attempt not found")
	ErrDuplicateAttempt = errors.New("checkout attempt already recorded")
)
