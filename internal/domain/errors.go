package domain

import "errors"

var (
	ErrRecordNotFound = errors.New("payment record not found")
	ErrMissingJobID   = errors.New("job id required")
	ErrGatewayFailure = errors.New("payment gateway call failed")
)
