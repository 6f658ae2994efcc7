package errors

import "errors"

var (
	ErrForumNotFound    = errors.New("no forum for article")
	ErrAlreadyMonitored = errors.New("forum already monitored")
	ErrMalformedPosting = errors.New("malformed posting")
	ErrMalformedPage    = errors.New("malformed posting page")
	ErrNoForums         = errors.New("no article urls given and discovery disabled")
	ErrInvalidInterval  = errors.New("interval must be positive")
	ErrUnauthorized     = errors.New("unauthorized user")
	ErrWatchQueueFull   = errors.New("watch queue full")
	ErrAlreadyRunning   = errors.New("orchestrator already running")
)
