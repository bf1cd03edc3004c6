package utils_test

import (
	"regexp"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/records_backend/utils"
)

func TestTruncateToDate(t *testing.T) {
	in := time.Date(2025, 3, 14, 15, 9, 26, 535, time.UTC)
	got := utils.TruncateToDate(in)
	want := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("TruncateToDate: got %v, want %v", got, want)
	}
}

func TestPreviousMonthRange(t *testing.T) {
	cases := []struct {
		ref   time.Time
		start time.Time
		end   time.Time
	}{
		{
			ref:   time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
			start: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			// January rolls back into the previous year.
			ref:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			start: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			// Leap year February.
			ref:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
			start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		start, end := utils.PreviousMonthRange(tc.ref)
		if !start.Equal(tc.start) || !end.Equal(tc.end) {
			t.Fatalf("PreviousMonthRange(%v): got %v..%v, want %v..%v", tc.ref, start, end, tc.start, tc.end)
		}
	}
}

func TestGenerateTimestampedFilename(t *testing.T) {
	name := utils.GenerateTimestampedFilename("daily_report_company_3", "xlsx")
	pattern := regexp.MustCompile(`^daily_report_company_3_\d{8}_\d{6}_[0-9a-f]{8}\.xlsx$`)
	if !pattern.MatchString(name) {
		t.Fatalf("unexpected filename format: %q", name)
	}
}

func TestMaskSensitive(t *testing.T) {
	cases := []struct {
		value     string
		fieldType string
		want      string
	}{
		{"12345678901", "national_id", "123****01"},
		{"1234", "national_id", "1234"},
		{"TR330006100519786457841326", "iban", "TR3300****1326"},
		{"05321234567", "phone", "053212***67"},
		{"someone@example.com", "email", "so***@example.com"},
		{"a@example.com", "email", "a@example.com"},
		{"", "iban", ""},
		{"plainvalue", "unknown", "plainvalue"},
	}
	for _, tc := range cases {
		if got := utils.MaskSensitive(tc.value, tc.fieldType); got != tc.want {
			t.Fatalf("MaskSensitive(%q, %q): got %q, want %q", tc.value, tc.fieldType, got, tc.want)
		}
	}
}

func TestUniqueSlice(t *testing.T) {
	got := utils.UniqueSlice([]string{"a@x.com", "b@x.com", "a@x.com"})
	if len(got) != 2 || got[0] != "a@x.com" || got[1] != "b@x.com" {
		t.Fatalf("UniqueSlice: got %v", got)
	}
}

func TestIsValidEmail(t *testing.T) {
	if !utils.IsValidEmail("admin@records.example") {
		t.Fatal("expected valid email")
	}
	if utils.IsValidEmail("not-an-email") {
		t.Fatal("expected invalid email")
	}
}
