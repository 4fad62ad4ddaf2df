package project

import "errors"

var (
	ErrPathExists   = errors.New("path already exists")
	ErrNotFound     = errors.New("file not found")
	ErrUnknownStack = errors.New("unknown stack")
	ErrEmptyPath    = errors.New("empty path")
)
