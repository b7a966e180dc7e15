package database

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-process Store used for local development and tests.
// Documents go through a bson round trip so they decode exactly like Mongo results.
type MemoryStore struct {
	mu    sync.Mutex
	colls map[string]*memoryCollection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{colls: make(map[string]*memoryCollection)}
}

func (s *MemoryStore) Collection(name string) Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.colls[name]
	if !ok {
		c = &memoryCollection{}
		s.colls[name] = c
	}
	return c
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

type memoryCollection struct {
	mu   sync.RWMutex
	docs []bson.M // insertion order is the natural order
}

func (c *memoryCollection) FindOne(ctx context.Context, filter bson.M, out interface{}) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, doc := range c.docs {
		if matches(doc, filter) {
			return decode(doc, out)
		}
	}
	return ErrNotFound
}

func (c *memoryCollection) Find(ctx context.Context, filter bson.M, out interface{}, opts FindOptions) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		return errors.New("find: out must be a pointer to a slice")
	}

	c.mu.RLock()
	var found []bson.M
	for _, doc := range c.docs {
		if matches(doc, filter) {
			found = append(found, doc)
		}
	}
	c.mu.RUnlock()

	if len(opts.Sort) > 0 {
		key := opts.Sort[0].Key
		dir, _ := asInt64(opts.Sort[0].Value)
		sort.SliceStable(found, func(i, j int) bool {
			cmp := compareValues(found[i][key], found[j][key])
			if dir < 0 {
				return cmp > 0
			}
			return cmp < 0
		})
	}
	if opts.Limit > 0 && int64(len(found)) > opts.Limit {
		found = found[:opts.Limit]
	}

	slice := rv.Elem()
	result := reflect.MakeSlice(slice.Type(), 0, len(found))
	for _, doc := range found {
		elem := reflect.New(slice.Type().Elem())
		if err := decode(doc, elem.Interface()); err != nil {
			return err
		}
		result = reflect.Append(result, elem.Elem())
	}
	slice.Set(result)
	return nil
}

func (c *memoryCollection) InsertOne(ctx context.Context, doc interface{}) error {
	m, err := toDocument(doc)
	if err != nil {
		return err
	}
	if _, ok := m["_id"]; !ok {
		m["_id"] = primitive.NewObjectID()
	}

	c.mu.Lock()
	c.docs = append(c.docs, m)
	c.mu.Unlock()
	return nil
}

func (c *memoryCollection) UpdateOne(ctx context.Context, filter, update bson.M, upsert bool) (UpdateResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, doc := range c.docs {
		if !matches(doc, filter) {
			continue
		}
		next, err := toDocument(doc)
		if err != nil {
			return UpdateResult{}, err
		}
		if err := applyUpdate(next, update, false); err != nil {
			return UpdateResult{}, err
		}
		res := UpdateResult{Matched: 1}
		if !reflect.DeepEqual(doc, next) {
			c.docs[i] = next
			res.Modified = 1
		}
		return res, nil
	}

	if !upsert {
		return UpdateResult{}, nil
	}

	doc := bson.M{"_id": primitive.NewObjectID()}
	for key, cond := range filter {
		if strings.HasPrefix(key, "$") {
			continue
		}
		if m, ok := asMap(cond); ok && isOperatorDoc(m) {
			continue
		}
		v, err := normalize(cond)
		if err != nil {
			return UpdateResult{}, err
		}
		doc[key] = v
	}
	if err := applyUpdate(doc, update, true); err != nil {
		return UpdateResult{}, err
	}
	c.docs = append(c.docs, doc)
	return UpdateResult{Upserted: true}, nil
}

func applyUpdate(doc, update bson.M, inserting bool) error {
	for op, rawArgs := range update {
		args, ok := asMap(rawArgs)
		if !ok {
			return fmt.Errorf("update operator %s needs a document argument", op)
		}
		if op == "$setOnInsert" && !inserting {
			continue
		}
		for field, raw := range args {
			val, err := normalize(raw)
			if err != nil {
				return err
			}
			switch op {
			case "$set", "$setOnInsert":
				doc[field] = val
			case "$inc":
				cur, ok := doc[field]
				if !ok || cur == nil {
					cur = int64(0)
				}
				sum, err := addNumbers(cur, val)
				if err != nil {
					return fmt.Errorf("$inc %s: %w", field, err)
				}
				doc[field] = sum
			case "$push", "$addToSet":
				arr, ok := asArray(doc[field])
				if !ok {
					return fmt.Errorf("%s %s: field is not an array", op, field)
				}
				if op == "$addToSet" && containsValue(arr, val) {
					continue
				}
				doc[field] = append(primitive.A(arr), val)
			default:
				return fmt.Errorf("unsupported update operator %s", op)
			}
		}
	}
	return nil
}

func matches(doc, filter bson.M) bool {
	for key, cond := range filter {
		val, present := doc[key]
		if ops, ok := asMap(cond); ok && isOperatorDoc(ops) {
			if !matchOperators(val, present, ops) {
				return false
			}
			continue
		}
		if !present {
			if cond == nil {
				continue
			}
			return false
		}
		if !fieldMatches(val, cond) {
			return false
		}
	}
	return true
}

func matchOperators(val interface{}, present bool, ops bson.M) bool {
	for op, arg := range ops {
		switch op {
		case "$in":
			list, ok := asArray(arg)
			if !ok || !present {
				return false
			}
			hit := false
			for _, want := range list {
				if fieldMatches(val, want) {
					hit = true
					break
				}
			}
			if !hit {
				return false
			}
		case "$ne":
			if present && fieldMatches(val, arg) {
				return false
			}
		case "$exists":
			want, _ := arg.(bool)
			if present != want {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// fieldMatches follows Mongo's rule that a scalar condition matches an array
// field when any element equals it.
func fieldMatches(val, want interface{}) bool {
	if arr, ok := val.(primitive.A); ok {
		if _, wantArr := asArray(want); !wantArr {
			return containsValue(arr, want)
		}
	}
	return valuesEqual(val, want)
}

func containsValue(arr []interface{}, want interface{}) bool {
	for _, v := range arr {
		if valuesEqual(v, want) {
			return true
		}
	}
	return false
}

func valuesEqual(a, b interface{}) bool {
	if af, ok := asFloat(a); ok {
		bf, ok := asFloat(b)
		return ok && af == bf
	}
	if reflect.DeepEqual(a, b) {
		return true
	}
	nb, err := normalize(b)
	return err == nil && reflect.DeepEqual(a, nb)
}

func compareValues(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func addNumbers(a, b interface{}) (interface{}, error) {
	ai, aInt := asInt64(a)
	bi, bInt := asInt64(b)
	if aInt && bInt {
		return ai + bi, nil
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return nil, errors.New("non-numeric operand")
	}
	return af + bf, nil
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func asFloat(v interface{}) (float64, bool) {
	if i, ok := asInt64(v); ok {
		return float64(i), true
	}
	if f, ok := v.(float64); ok {
		return f, true
	}
	return 0, false
}

func asMap(v interface{}) (bson.M, bool) {
	switch m := v.(type) {
	case bson.M:
		return m, true
	case map[string]interface{}:
		return bson.M(m), true
	}
	return nil, false
}

func asArray(v interface{}) ([]interface{}, bool) {
	if v == nil {
		return primitive.A{}, true
	}
	if arr, ok := v.(primitive.A); ok {
		return arr, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make(primitive.A, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func isOperatorDoc(m bson.M) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return true
}

func toDocument(v interface{}) (bson.M, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func normalize(v interface{}) (interface{}, error) {
	m, err := toDocument(bson.M{"v": v})
	if err != nil {
		return nil, err
	}
	return m["v"], nil
}

func decode(doc bson.M, out interface{}) error {
	data, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(data, out)
}
