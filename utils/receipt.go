package utils

import "github.com/google/uuid"

// GenerateReceipt returns the opaque id attached to a granted claim so
// support can correlate a user report with one specific grant.
func GenerateReceipt() string {
	return uuid.NewString()
}
