package domain

import "errors"

// Configuration errors
var (
	ErrNodeTimeoutTooSmall   = errors.New("nodeTimeout must be greater than or equal to checkInterval")
	ErrMasterTimeoutTooSmall = errors.New("masterTimeout must be greater than or equal to nodeTimeout")
	ErrInvalidHelloInterval  = errors.New("helloInterval must be positive")
	ErrInvalidPort           = errors.New("port must be 0-65535")
	ErrConflictingTransports = errors.New("redis and mqtt transports are mutually exclusive")
	ErrMissingRedisAddr      = errors.New("redis address is required")
	ErrMissingMQTTHost       = errors.New("mqtt host is required")
)
