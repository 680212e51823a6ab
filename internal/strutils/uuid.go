package strutils

import (
	"fmt"

	"github.com/google/uuid"
)

// NormalizeUserID returns the canonical lowercase, dashed form of a user ID
func NormalizeUserID(userID string) (string, error) {
	parsed, err := uuid.Parse(userID)
	if err != nil {
		return "", fmt.Errorf("invalid user ID '%s': %w", userID, err)
	}
	return parsed.String(), nil
}
