// Package record defines the flat, ordered record that feeds note rendering.
//
// A Record maps field names to Values. A Value is a string, a number, a
// boolean, null, or a list of strings; nested records are not supported and
// producers must flatten them before building a record.
//
//	rec := record.New()
//	rec.Set("title", record.String("Alien"))
//	rec.Set("genres", record.List("Horror", "Science Fiction"))
//
// Iteration order is insertion order. Setting a key that already exists
// replaces its value in place.
package record

import (
	"math"
	"strconv"
	"strings"

	"movie-note-core/pkg/errors"
)

// Kind is the variant tag of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
)

// Value is a single record field value.
type Value struct {
	kind  Kind
	str   string
	num   float64
	flag  bool
	items []string
}

func String(s string) Value { return Value{kind: KindString, str: s} }
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }
func Int(n int64) Value { return Value{kind: KindNumber, num: float64(n)} }
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }
func Null() Value { return Value{} }
func List(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{kind: KindList, items: cp}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsList() bool { return v.kind == KindList }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Items returns a copy of the list items, or nil for scalar values.
func (v Value) Items() []string {
	if v.kind != KindList {
		return nil
	}
	cp := make([]string, len(v.items))
	copy(cp, v.items)
	return cp
}

// Text coerces the value to its display string. Null is the empty string,
// integral numbers have no fractional part, lists are joined with ", ".
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindList:
		return strings.Join(v.items, ", ")
	default:
		return ""
	}
}

// Interface returns the plain Go value, suitable for serializers.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		if v.num == math.Trunc(v.num) && math.Abs(v.num) < 1e15 {
			return int64(v.num)
		}
		return v.num
	case KindBool:
		return v.flag
	case KindList:
		return v.Items()
	default:
		return nil
	}
}

// Field is one key/value pair of a Record.
type Field struct {
	Key   string
	Value Value
}

// Record is an ordered set of uniquely keyed fields.
type Record struct {
	fields []Field
	index  map[string]int
}

func New() *Record {
	return &Record{index: make(map[string]int)}
}

// FromFields builds a record from pairs; later duplicates overwrite earlier
// values without moving them.
func FromFields(fields ...Field) *Record {
	r := New()
	for _, f := range fields {
		r.Set(f.Key, f.Value)
	}
	return r
}

// Set adds or replaces a field. The zero Record is ready to use.
func (r *Record) Set(key string, v Value) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[key]; ok {
		r.fields[i].Value = v
		return
	}
	r.index[key] = len(r.fields)
	r.fields = append(r.fields, Field{Key: key, Value: v})
}

func (r *Record) Get(key string) (Value, bool) {
	i, ok := r.index[key]
	if !ok {
		return Value{}, false
	}
	return r.fields[i].Value, true
}

// Fields returns the fields in insertion order. The slice is a copy.
func (r *Record) Fields() []Field {
	cp := make([]Field, len(r.fields))
	copy(cp, r.fields)
	return cp
}

func (r *Record) Len() int { return len(r.fields) }

// Name returns the canonical title of the record: the "name" field, or the
// "title" field for records that have no name.
func (r *Record) Name() string {
	for _, key := range []string{"name", "title"} {
		if v, ok := r.Get(key); ok && !v.IsList() {
			if s := strings.TrimSpace(v.Text()); s != "" {
				return s
			}
		}
	}
	return ""
}

// Validate checks the invariants producers must uphold.
func (r *Record) Validate() error {
	if r.Name() == "" {
		return errors.New(errors.ErrInvalidRecord, "record has no name or title")
	}
	return nil
}
