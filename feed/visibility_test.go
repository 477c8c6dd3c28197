package feed

import (
	"strconv"
	"testing"
	"time"
)

var testNow = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

func publishedRecord(id uint64) *Record {
	return &Record{
		ID:          id,
		Type:        "post",
		Status:      "publish",
		PublishedAt: testNow.Add(-time.Hour),
		Meta:        map[string][]string{},
	}
}

func TestPolicy_Classify(t *testing.T) {
	p := NewPolicy(nil)

	withStatus := func(status string) *Record {
		r := publishedRecord(1)
		r.Status = status
		return r
	}
	scheduled := publishedRecord(2)
	scheduled.PublishedAt = testNow.Add(time.Minute)
	page := publishedRecord(3)
	page.Type = "page"
	expired := publishedRecord(4)
	expired.Meta["_expiration-date"] = []string{strconv.FormatInt(testNow.Add(-time.Second).Unix(), 10)}
	notYetExpired := publishedRecord(5)
	notYetExpired.Meta["_expiration-date"] = []string{"2030-01-01 00:00:00"}
	garbageExpiry := publishedRecord(6)
	garbageExpiry.Meta["_expiration-date"] = []string{"next tuesday"}

	tests := []struct {
		name   string
		record *Record
		want   Status
	}{
		{"published", publishedRecord(1), StatusPublished},
		{"nil record", nil, StatusDeleted},
		{"trash", withStatus("trash"), StatusTrashed},
		{"draft", withStatus("draft"), StatusDraft},
		{"auto-draft", withStatus("auto-draft"), StatusDraft},
		{"pending", withStatus("pending"), StatusDraft},
		{"private", withStatus("private"), StatusDraft},
		{"inherit", withStatus("inherit"), StatusDraft},
		{"scheduled in the future", scheduled, StatusDraft},
		{"other post type", page, StatusDraft},
		{"expired", expired, StatusExpired},
		{"expiry in the future", notYetExpired, StatusPublished},
		{"unparseable expiry ignored", garbageExpiry, StatusPublished},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Classify(tt.record, testNow); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
			if got := p.IsVisible(tt.record, testNow); got != (tt.want == StatusPublished) {
				t.Errorf("IsVisible() = %v", got)
			}
		})
	}
}

func TestPolicy_ExpiryIsTimeMonotonic(t *testing.T) {
	p := NewPolicy(nil)
	expiry := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	r := publishedRecord(1)
	r.PublishedAt = expiry.Add(-30 * 24 * time.Hour)
	r.Meta["_expiration-date"] = []string{strconv.FormatInt(expiry.Unix(), 10)}

	for offset := -3; offset <= 3; offset++ {
		at := expiry.Add(time.Duration(offset) * time.Second)
		want := at.Before(expiry)
		// evaluating repeatedly must not change the answer
		for i := 0; i < 3; i++ {
			if got := p.IsVisible(r, at); got != want {
				t.Fatalf("offset %ds, attempt %d: IsVisible() = %v, want %v", offset, i, got, want)
			}
		}
	}
}

func TestPolicy_CustomExpiryField(t *testing.T) {
	p := NewPolicy(&Config{PostType: "post", ExpiryField: "expires_at"})
	r := publishedRecord(1)
	r.Meta["_expiration-date"] = []string{"1"}
	r.Meta["expires_at"] = []string{"2024-03-05T11:00:00Z"}

	if got := p.Classify(r, testNow); got != StatusExpired {
		t.Errorf("Classify() = %v, want expired", got)
	}
	if p.ExpiryField() != "expires_at" {
		t.Errorf("ExpiryField() = %q", p.ExpiryField())
	}
}

func TestParseExpiry(t *testing.T) {
	tests := []struct {
		value string
		want  time.Time
		ok    bool
	}{
		{"1717200000", time.Unix(1717200000, 0).UTC(), true},
		{" 2024-06-01T00:00:00Z ", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{"2024-06-01 08:30:15", time.Date(2024, 6, 1, 8, 30, 15, 0, time.UTC), true},
		{"2024-06-01 08:30", time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"0", time.Time{}, false},
		{"soon", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, ok := ParseExpiry(tt.value)
			if ok != tt.ok || !got.Equal(tt.want) {
				t.Errorf("ParseExpiry(%q) = %v, %v; want %v, %v", tt.value, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestStatus_String(t *testing.T) {
	if StatusPublished.String() != "published" || StatusExpired.String() != "expired" {
		t.Error("unexpected status names")
	}
	if Status(42).String() != "status(42)" {
		t.Errorf("unexpected fallback: %s", Status(42))
	}
}
