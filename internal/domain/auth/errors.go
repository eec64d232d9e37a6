package auth

import "errors"

func asProviderError(err error, target **ProviderError) bool {
	return errors.As(err, target)
}

// NewProviderError builds a *ProviderError from a reason code and message.
func NewProviderError(code, message string) *ProviderError {
	return &ProviderError{Code: code, Message: message}
}
