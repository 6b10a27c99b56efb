package sync

import (
	"strconv"
	"time"
)

// parseItemTimestamp accepts either a Unix-seconds string or an ISO-8601
// UTC timestamp, the two formats Xtream servers use interchangeably for
// "added"/"last_modified" fields.
func parseItemTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// isItemUpdated reports whether an item's server-side timestamp is
// strictly newer than the watermark. A missing or unparseable item
// timestamp, or a nil watermark, is never "updated" — incremental sync
// leaves such items alone rather than guessing.
func isItemUpdated(itemTimestamp string, lastSync *time.Time) bool {
	if lastSync == nil {
		return false
	}
	t, ok := parseItemTimestamp(itemTimestamp)
	if !ok {
		return false
	}
	return t.After(*lastSync)
}

// diff splits server items against the cached identity set into new
// (never seen) and updated (seen, but server timestamp advanced past the
// watermark) buckets, and returns the full server-side identity set for
// removal detection (cached IDs absent from it were deleted upstream).
func diff[T any](serverItems []T, cachedIDs map[int64]struct{}, lastSync *time.Time, getID func(T) int64, getTimestamp func(T) string) (newItems, updatedItems []T, serverIDs map[int64]struct{}) {
	serverIDs = make(map[int64]struct{}, len(serverItems))
	for _, item := range serverItems {
		id := getID(item)
		serverIDs[id] = struct{}{}
		if _, cached := cachedIDs[id]; !cached {
			newItems = append(newItems, item)
			continue
		}
		if isItemUpdated(getTimestamp(item), lastSync) {
			updatedItems = append(updatedItems, item)
		}
	}
	return newItems, updatedItems, serverIDs
}

// removed returns the cached IDs absent from the server's current
// identity set.
func removed(cachedIDs map[int64]struct{}, serverIDs map[int64]struct{}) []int64 {
	var out []int64
	for id := range cachedIDs {
		if _, present := serverIDs[id]; !present {
			out = append(out, id)
		}
	}
	return out
}
