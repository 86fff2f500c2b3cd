package model

import "errors"

var (
	// ErrNotFound: запрошенная запись/пользователь/вложение/партнёр не найдены.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration is returned when a required configuration value is missing.
	ErrConfiguration = errors.New("configuration error")
	// ErrNoData: вложение существует, но без содержимого.
	ErrNoData = errors.New("no data")
	// ErrFileNotFound is returned when a local path to upload does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrInvalidArgument is returned when a local path exists but is not a regular file.
	ErrInvalidArgument = errors.New("invalid argument")
)
