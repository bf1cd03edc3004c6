package schedule

import (
	"testing"

	"github.com/robfig/cron/v3"
)

func TestScheduleSpecsParse(t *testing.T) {
	seen := map[string]bool{}
	for _, e := range entries {
		if e.name == "" || e.run == nil {
			t.Fatalf("entry %+v is incomplete", e)
		}
		if seen[e.name] {
			t.Fatalf("duplicate entry name %q", e.name)
		}
		seen[e.name] = true
		if _, err := cron.ParseStandard(e.spec); err != nil {
			t.Fatalf("entry %q: invalid cron spec %q: %v", e.name, e.spec, err)
		}
	}
}
