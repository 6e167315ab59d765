package mongodocs

import (
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFlatten_IntoStoredObjects(t *testing.T) {
	dst := bson.M{}
	flatten("", map[string]any{
		"address": "1 Main St",
		"location": map[string]any{
			"latitude":  1.5,
			"longitude": 2.5,
		},
		"tags": map[string]any{},
	}, map[string]any{
		"location": map[string]any{"placeId": "p1"},
		"tags":     map[string]any{"a": true},
	}, dst)

	want := map[string]any{
		"address":            "1 Main St",
		"location.latitude":  1.5,
		"location.longitude": 2.5,
	}
	for k, v := range want {
		if dst[k] != v {
			t.Errorf("dst[%q] = %v, want %v", k, dst[k], v)
		}
	}
	if _, ok := dst["location"]; ok {
		t.Error("nested map over a stored object should not be written whole")
	}
	if _, ok := dst["tags"]; ok {
		t.Error("empty map over a stored object should leave it alone")
	}
}

func TestFlatten_OverNullOrScalar(t *testing.T) {
	loc := map[string]any{"latitude": 1.5}
	tags := map[string]any{}
	dst := bson.M{}
	flatten("", map[string]any{
		"location": loc,
		"region":   map[string]any{"code": "NE"},
		"tags":     tags,
	}, map[string]any{
		"location": nil,
		"region":   "north-east",
	}, dst)

	if len(dst) != 3 {
		t.Fatalf("dst = %v, want 3 whole-value keys", dst)
	}
	if got, ok := dst["location"].(map[string]any); !ok || got["latitude"] != 1.5 {
		t.Errorf("location = %v, want whole map", dst["location"])
	}
	if got, ok := dst["region"].(map[string]any); !ok || got["code"] != "NE" {
		t.Errorf("region = %v, want whole map", dst["region"])
	}
	if _, ok := dst["tags"]; !ok {
		t.Error("empty map over a missing field should still be created")
	}
	for k := range dst {
		if strings.Contains(k, ".") {
			t.Errorf("unexpected dotted key %q", k)
		}
	}
}

func TestFlatten_NoExistingDocument(t *testing.T) {
	dst := bson.M{}
	flatten("", map[string]any{
		"location": map[string]any{"latitude": 1.5},
	}, nil, dst)

	if _, ok := dst["location"]; !ok {
		t.Errorf("dst = %v, want location written whole", dst)
	}
}

func TestObjectFields(t *testing.T) {
	proj := objectFields(map[string]any{
		"address":  "1 Main St",
		"location": map[string]any{"latitude": 1.5},
	})
	if len(proj) != 1 || proj["location"] != 1 {
		t.Errorf("objectFields = %v, want only location", proj)
	}
}

func TestFromBSON(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	raw := bson.M{
		"_id":      "u1",
		"userType": int32(2),
		"location": primitive.D{{Key: "latitude", Value: 1.0}},
		"tags":     primitive.A{"a", "b"},
		"seenAt":   primitive.NewDateTimeFromTime(now),
	}

	doc := fromBSON(raw)

	if doc["id"] != "u1" {
		t.Errorf("id = %v, want u1", doc["id"])
	}
	if _, ok := doc["_id"]; ok {
		t.Error("_id should be dropped")
	}
	if doc["userType"] != int64(2) {
		t.Errorf("userType = %#v, want int64(2)", doc["userType"])
	}
	loc, ok := doc["location"].(map[string]any)
	if !ok || loc["latitude"] != 1.0 {
		t.Errorf("location = %#v", doc["location"])
	}
	tags, ok := doc["tags"].([]any)
	if !ok || len(tags) != 2 {
		t.Errorf("tags = %#v", doc["tags"])
	}
	if ts, ok := doc["seenAt"].(time.Time); !ok || !ts.Equal(now) {
		t.Errorf("seenAt = %#v", doc["seenAt"])
	}
}

func TestFromBSON_KeepsStoredID(t *testing.T) {
	doc := fromBSON(bson.M{"_id": "storage-key", "id": "logical"})
	if doc["id"] != "logical" {
		t.Errorf("id = %v, want logical", doc["id"])
	}
}
