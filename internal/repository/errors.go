package repository

import "errors"

var (
	ErrNotFound         = errors.New("record not found")
	ErrAreaMissing      = errors.New("area does not exist")
	ErrDuplicatePending = errors.New("open approval record already exists for target")
	ErrAlreadyDecided   = errors.New("approval record already decided")
)
