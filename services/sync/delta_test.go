package sync

import (
	"testing"
	"time"
)

func TestIsItemUpdatedUnixTimestamp(t *testing.T) {
	lastSync := time.Unix(1234567890, 0).UTC()

	if !isItemUpdated("1234567900", &lastSync) {
		t.Error("newer unix timestamp should be updated")
	}
	if isItemUpdated("1234567880", &lastSync) {
		t.Error("older unix timestamp should not be updated")
	}
	if isItemUpdated("1234567890", &lastSync) {
		t.Error("equal unix timestamp should not be updated")
	}
	if isItemUpdated("", &lastSync) {
		t.Error("empty timestamp should not be updated")
	}
}

func TestIsItemUpdatedISO8601(t *testing.T) {
	lastSync, _ := time.Parse(time.RFC3339, "2024-01-01T12:00:00Z")

	if !isItemUpdated("2024-01-01T13:00:00Z", &lastSync) {
		t.Error("newer ISO-8601 timestamp should be updated")
	}
	if isItemUpdated("2024-01-01T11:00:00Z", &lastSync) {
		t.Error("older ISO-8601 timestamp should not be updated")
	}
}

func TestIsItemUpdatedNilWatermark(t *testing.T) {
	if isItemUpdated("2024-01-01T13:00:00Z", nil) {
		t.Error("nil watermark should never report updated")
	}
}

type fakeItem struct {
	id        int64
	timestamp string
}

func TestDiffNewItems(t *testing.T) {
	server := []fakeItem{{1, "1234567890"}, {2, "1234567891"}}
	cached := map[int64]struct{}{}

	newItems, updated, serverIDs := diff(server, cached, nil,
		func(f fakeItem) int64 { return f.id },
		func(f fakeItem) string { return f.timestamp })

	if len(newItems) != 2 {
		t.Errorf("expected 2 new items, got %d", len(newItems))
	}
	if len(updated) != 0 {
		t.Errorf("expected 0 updated items, got %d", len(updated))
	}
	if len(serverIDs) != 2 {
		t.Errorf("expected 2 server ids, got %d", len(serverIDs))
	}
}

func TestDiffUpdatedItems(t *testing.T) {
	server := []fakeItem{{1, "1234567900"}}
	cached := map[int64]struct{}{1: {}}
	lastSync := time.Unix(1234567890, 0).UTC()

	newItems, updated, serverIDs := diff(server, cached, &lastSync,
		func(f fakeItem) int64 { return f.id },
		func(f fakeItem) string { return f.timestamp })

	if len(newItems) != 0 {
		t.Errorf("expected 0 new items, got %d", len(newItems))
	}
	if len(updated) != 1 {
		t.Errorf("expected 1 updated item, got %d", len(updated))
	}
	if len(serverIDs) != 1 {
		t.Errorf("expected 1 server id, got %d", len(serverIDs))
	}
}

func TestDiffMixed(t *testing.T) {
	server := []fakeItem{
		{1, "1234567880"}, // older, not updated
		{2, "1234567900"}, // newer, updated
		{3, "1234567891"}, // new
	}
	cached := map[int64]struct{}{1: {}, 2: {}}
	lastSync := time.Unix(1234567890, 0).UTC()

	newItems, updated, serverIDs := diff(server, cached, &lastSync,
		func(f fakeItem) int64 { return f.id },
		func(f fakeItem) string { return f.timestamp })

	if len(newItems) != 1 {
		t.Errorf("expected 1 new item, got %d", len(newItems))
	}
	if len(updated) != 1 {
		t.Errorf("expected 1 updated item, got %d", len(updated))
	}
	if len(serverIDs) != 3 {
		t.Errorf("expected 3 server ids, got %d", len(serverIDs))
	}
}

func TestRemoved(t *testing.T) {
	cached := map[int64]struct{}{1: {}, 2: {}, 3: {}}
	serverIDs := map[int64]struct{}{2: {}}

	got := removed(cached, serverIDs)
	if len(got) != 2 {
		t.Fatalf("expected 2 removed ids, got %d", len(got))
	}
	seen := map[int64]bool{}
	for _, id := range got {
		seen[id] = true
	}
	if !seen[1] || !seen[3] {
		t.Errorf("expected removed ids {1,3}, got %v", got)
	}
}
