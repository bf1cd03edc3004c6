package models

import "testing"

func TestReportCacheKeyShape(t *testing.T) {
	if got := reportCacheKey("biz-1", 42); got != "report:biz-1:42" {
		t.Fatalf("cache key: %q", got)
	}
}
