package strutils

import (
	"fmt"
	"strings"

	"github.com/opentabletop/gunslinger/internal/domain"
)

// Player ids are numeric only and zero-padded to a fixed width. The core
// never parses raw user text; callers normalize first.
const PlayerIDWidth = 4

// NormalizePlayerID validates a human-entered player id and zero-pads it to
// PlayerIDWidth. "7" -> "0007".
func NormalizePlayerID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty player id", domain.ErrInvalidValue)
	}
	if len(trimmed) > PlayerIDWidth {
		return "", fmt.Errorf("%w: player id %q longer than %d digits", domain.ErrInvalidValue, raw, PlayerIDWidth)
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: player id %q is not numeric", domain.ErrInvalidValue, raw)
		}
	}
	return strings.Repeat("0", PlayerIDWidth-len(trimmed)) + trimmed, nil
}

func PlayerIDIsNormalized(id string) bool {
	normalized, err := NormalizePlayerID(id)
	if err != nil {
		return false
	}
	return normalized == id
}
