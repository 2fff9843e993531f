package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a miniredis instance for testing Lua scripts
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, mr
}

func TestAddEntryScript(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer client.Close()
	defer mr.Close()

	ctx := context.Background()
	k := newKeyspace("test")

	run := func(activityID, entryID string) int64 {
		t.Helper()
		result, err := client.Eval(ctx, addEntryScript, []string{
			k.activity(activityID),
			k.entry(entryID),
			k.activityEntries(activityID),
		}, entryID, activityID, "60000000000", "2024-01-02T00:00:00Z", "2024-01-02T09:00:00Z", 1704153600).Int64()
		if err != nil {
			t.Fatalf("eval add entry: %v", err)
		}
		return result
	}

	if got := run("reading", "e1"); got != 0 {
		t.Fatalf("expected 0 for missing activity, got %d", got)
	}
	if mr.Exists(k.entry("e1")) {
		t.Fatal("entry must not be written for a missing activity")
	}

	mr.HSet(k.activity("reading"), "id", "reading")

	if got := run("reading", "e1"); got != 1 {
		t.Fatalf("expected 1 on success, got %d", got)
	}
	if got := mr.HGet(k.entry("e1"), "duration"); got != "60000000000" {
		t.Errorf("expected stored duration, got %q", got)
	}
	members, err := mr.ZMembers(k.activityEntries("reading"))
	if err != nil {
		t.Fatalf("zmembers: %v", err)
	}
	if len(members) != 1 || members[0] != "e1" {
		t.Errorf("expected e1 in index, got %v", members)
	}

	if got := run("reading", "e1"); got != -1 {
		t.Fatalf("expected -1 for duplicate entry, got %d", got)
	}
}

func TestUpsertGoalScriptKeepsIdentity(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer client.Close()
	defer mr.Close()

	ctx := context.Background()
	k := newKeyspace("test")
	mr.HSet(k.activity("reading"), "id", "reading")

	keys := []string{k.activity("reading"), k.goal("reading"), k.goals()}

	if err := client.Eval(ctx, upsertGoalScript, keys, "g1", "reading", "5", "weekly", "2024-01-01T00:00:00Z").Err(); err != nil {
		t.Fatalf("eval first upsert: %v", err)
	}
	if err := client.Eval(ctx, upsertGoalScript, keys, "g2", "reading", "2", "daily", "2024-02-01T00:00:00Z").Err(); err != nil {
		t.Fatalf("eval second upsert: %v", err)
	}

	if got := mr.HGet(k.goal("reading"), "id"); got != "g1" {
		t.Errorf("expected goal id g1 to be kept, got %s", got)
	}
	if got := mr.HGet(k.goal("reading"), "created_at"); got != "2024-01-01T00:00:00Z" {
		t.Errorf("expected original created_at, got %s", got)
	}
	if got := mr.HGet(k.goal("reading"), "timeframe"); got != "daily" {
		t.Errorf("expected updated timeframe, got %s", got)
	}
	if ok, _ := mr.SIsMember(k.goals(), "reading"); !ok {
		t.Error("expected activity in goal index")
	}
}

func TestDeleteActivityScript(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer client.Close()
	defer mr.Close()

	ctx := context.Background()
	k := newKeyspace("test")

	mr.HSet(k.activity("reading"), "id", "reading")
	_, _ = mr.ZAdd(k.activities(), 1, "reading")
	for i, id := range []string{"e1", "e2"} {
		mr.HSet(k.entry(id), "id", id)
		_, _ = mr.ZAdd(k.activityEntries("reading"), float64(i), id)
	}
	mr.HSet(k.entry("other"), "id", "other")
	mr.HSet(k.goal("reading"), "id", "g1")
	_, _ = mr.SAdd(k.goals(), "reading")

	keys := []string{
		k.activity("reading"),
		k.activities(),
		k.activityEntries("reading"),
		k.goal("reading"),
		k.goals(),
	}

	result, err := client.Eval(ctx, deleteActivityScript, keys, "reading", k.entry("")).Int64()
	if err != nil {
		t.Fatalf("eval delete: %v", err)
	}
	if result != 1 {
		t.Fatalf("expected 1, got %d", result)
	}

	for _, key := range []string{k.activity("reading"), k.entry("e1"), k.entry("e2"), k.activityEntries("reading"), k.goal("reading")} {
		if mr.Exists(key) {
			t.Errorf("expected %s to be deleted", key)
		}
	}
	if !mr.Exists(k.entry("other")) {
		t.Error("unrelated entry must survive")
	}

	result, err = client.Eval(ctx, deleteActivityScript, keys, "reading", k.entry("")).Int64()
	if err != nil {
		t.Fatalf("eval second delete: %v", err)
	}
	if result != 0 {
		t.Fatalf("expected 0 for missing activity, got %d", result)
	}
}
