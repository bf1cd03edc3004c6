package utils

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/records_backend/config"
	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func IsValidEmail(email string) bool {
	pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	regex := regexp.MustCompile(pattern)
	return regex.MatchString(email)
}

// GenerateTimestampedFilename builds a collision-avoided artifact filename,
// e.g. report_company_daily_20250901_134501_9f3a2c.xlsx
func GenerateTimestampedFilename(prefix string, extension string) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	short := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%s_%s_%s.%s", prefix, timestamp, short, extension)
}

func ProcessValidationErrors(err error) map[string]string {

	validationErrors := err.(validator.ValidationErrors)

	errorResponse := make(map[string]string)

	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

// returns slice removing duplicate elements
func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

// safely dereference pointer of type T, nil pointer return zero value or optional default
func DereferencePtr[T any](ptr *T, defaults ...T) T {
	var defaultValue T
	if len(defaults) > 0 {
		defaultValue = defaults[0]
	}
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

func NilIfEmpty[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}

// TruncateToDate drops the time-of-day components.
func TruncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// PreviousMonthRange returns the first and last day of the calendar month
// before the one containing ref.
func PreviousMonthRange(ref time.Time) (time.Time, time.Time) {
	firstOfThis := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	start := firstOfThis.AddDate(0, -1, 0)
	end := firstOfThis.AddDate(0, 0, -1)
	return start, end
}

// ParseDecimal converts a string to a decimal.Decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}

	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}

	return dec, nil
}

// MaskSensitive hides the middle of identity fields before they leave the
// system in digests (national ids, ibans, phone numbers).
func MaskSensitive(value string, fieldType string) string {
	if value == "" {
		return ""
	}
	switch fieldType {
	case "national_id":
		if len(value) == 11 {
			return value[:3] + "****" + value[len(value)-2:]
		}
	case "iban":
		if len(value) >= 10 {
			return value[:6] + "****" + value[len(value)-4:]
		}
	case "phone":
		if len(value) >= 10 {
			return value[:6] + "***" + value[len(value)-2:]
		}
	case "email":
		parts := strings.Split(value, "@")
		if len(parts) == 2 && len(parts[0]) >= 2 {
			return parts[0][:2] + "***@" + parts[1]
		}
	}
	return value
}

// SweepLock obtains a best-effort redis lock around a scheduler sweep so
// concurrent instances don't duplicate work. Returns a release func; when the
// lock is held elsewhere, ok is false and the caller should skip this run.
// Redis being down is NOT a reason to skip: sweeps are idempotent, so we
// proceed without the lock.
func SweepLock(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, true
	}
	lock, err := locker.Obtain(ctx, "sweep:"+name, ttl, nil)
	if err == redislock.ErrNotObtained {
		return func() {}, false
	}
	if err != nil {
		config.LogError(logger, "utils", "SweepLock", "obtain "+name, nil, err)
		return func() {}, true
	}
	return func() { _ = lock.Release(ctx) }, true
}
