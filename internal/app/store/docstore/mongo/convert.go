package mongodocs

import (
	"github.com/dalemusser/dispatchhub/internal/app/store/docstore"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fromBSON converts a decoded Mongo document into a plain Document. The _id
// becomes "id" unless the document already stores its own id field.
func fromBSON(raw bson.M) docstore.Document {
	doc := make(docstore.Document, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		doc[k] = plain(v)
	}
	if _, ok := doc["id"]; !ok {
		if id, ok := raw["_id"]; ok {
			doc["id"] = plain(id)
		}
	}
	return doc
}

// plain strips driver-specific container types so callers only see
// map[string]any, []any and scalar values.
func plain(v any) any {
	switch t := v.(type) {
	case primitive.M:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = plain(vv)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = plain(vv)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plain(e.Value)
		}
		return out
	case primitive.A:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = plain(vv)
		}
		return out
	case int32:
		return int64(t)
	case primitive.DateTime:
		return t.Time().UTC()
	default:
		return v
	}
}

// flatten writes src into dst as $set entries. A nested map is written as
// dotted paths only when the stored value at that key is already an object;
// otherwise the whole map replaces it, since Mongo cannot create a path
// through null or a scalar. An empty map over a stored object is a no-op.
func flatten(prefix string, src, existing map[string]any, dst bson.M) {
	for k, v := range src {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		nested, ok := asObject(v)
		cur, curOK := asObject(existing[k])
		if ok && curOK {
			flatten(key, nested, cur, dst)
			continue
		}
		dst[key] = v
	}
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case docstore.Document:
		return m, true
	case bson.M:
		return m, true
	}
	return nil, false
}

// objectFields returns a projection of the top-level keys in partial that
// hold maps. UpsertMerge reads only those to decide how to write them.
func objectFields(partial map[string]any) bson.M {
	proj := bson.M{}
	for k, v := range partial {
		if _, ok := asObject(v); ok {
			proj[k] = 1
		}
	}
	return proj
}
