package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/construction_ledger/internal/core/domain"
)

const timeFormat = time.RFC3339Nano

// DefaultLimit and MaxLimit bound list page sizes.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ClampLimit returns DefaultLimit for non-positive values and caps at MaxLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// EncodePeriodCursor creates an opaque token positioned after period.
func EncodePeriodCursor(period domain.DistributionPeriod) string {
	return EncodeMultiFieldToken(period.CreatedAt.UTC().Format(timeFormat), period.PeriodID)
}

// DecodePeriodCursor parses a token produced by EncodePeriodCursor.
// An empty token yields a nil cursor (first page).
func DecodePeriodCursor(token string) (*domain.PeriodCursor, error) {
	if token == "" {
		return nil, nil
	}
	parts, err := DecodeMultiFieldToken(token)
	if err != nil {
		return nil, err
	}
	if len(parts) != 2 || parts[1] == "" {
		return nil, fmt.Errorf("invalid pagination token format (split)")
	}
	createdAt, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (created_at parse): %w", err)
	}
	return &domain.PeriodCursor{CreatedAt: createdAt, PeriodID: parts[1]}, nil
}

// EncodeMultiFieldToken creates a token with any number of string fields
func EncodeMultiFieldToken(fields ...string) string {
	return base64.URLEncoding.EncodeToString([]byte(strings.Join(fields, "|")))
}

// DecodeMultiFieldToken decodes a token into its component fields
func DecodeMultiFieldToken(token string) ([]string, error) {
	decodedBytes, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	return strings.Split(string(decodedBytes), "|"), nil
}
