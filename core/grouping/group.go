/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Gridview Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package grouping

import (
	"github.com/threadworks/gridview/core/fields"
	"github.com/threadworks/gridview/core/records"
)

// Grouping runs after filtering and sorting. It partitions the rows into two
// nested levels and never reorders them:
// * a Group holds the rows sharing a level-1 value
// * a Bucket holds the rows of a group sharing a level-2 value
// Groups and buckets appear in the order their key is first seen among the
// sorted rows. Concatenating every bucket's rows gives back the input.

// KeyKind distinguishes real values from the reserved markers.
type KeyKind uint8

const (
	// KindValue is a non-empty stringified field value.
	KindValue KeyKind = iota
	// KindBlank marks rows whose value is empty. It never equals a real
	// value, not even the string "(blank)".
	KindBlank
	// KindNone marks the single bucket used when a level is not grouped.
	KindNone
)

// BlankLabel is the conventional display text for blank keys.
const BlankLabel = "(blank)"

// Key is a group key.
type Key struct {
	Kind  KeyKind
	Value string
}

// NoneKey is the key of the implicit group or bucket of an ungrouped level.
var NoneKey = Key{Kind: KindNone}

// BlankKey is the key of rows with an empty value.
var BlankKey = Key{Kind: KindBlank}

func keyOf(r *records.Record, field fields.Key) Key {
	v := r.Get(field)
	if v.IsEmpty() {
		return BlankKey
	}
	return Key{Kind: KindValue, Value: v.String()}
}

// IsNone reports whether k is the none marker.
func (k Key) IsNone() bool {
	return k.Kind == KindNone
}

// IsBlank reports whether k is the blank marker.
func (k Key) IsBlank() bool {
	return k.Kind == KindBlank
}

// String returns the display text of the key.
func (k Key) String() string {
	switch k.Kind {
	case KindBlank:
		return BlankLabel
	case KindNone:
		return ""
	default:
		return k.Value
	}
}

// Bucket is the second grouping level.
type Bucket struct {
	Key  Key
	Rows []*records.Record
}

// Len returns the number of rows in the bucket.
func (b *Bucket) Len() int {
	return len(b.Rows)
}

// Group is the first grouping level.
type Group struct {
	Key     Key
	Buckets []*Bucket
}

// Len returns the number of rows across all buckets.
func (g *Group) Len() int {
	n := 0
	for _, b := range g.Buckets {
		n += len(b.Rows)
	}
	return n
}

// Rows returns the rows of every bucket in order.
func (g *Group) Rows() []*records.Record {
	result := make([]*records.Record, 0, g.Len())
	for _, b := range g.Buckets {
		result = append(result, b.Rows...)
	}
	return result
}

// Height returns the number of display lines of the group: one header line,
// one header per named bucket, and one line per row.
func (g *Group) Height() int {
	height := 1
	for _, b := range g.Buckets {
		if !b.Key.IsNone() {
			height++
		}
		height += len(b.Rows)
	}
	return height
}

// Apply partitions rs according to spec. Without a level-1 field the result
// is a single group keyed NoneKey holding one bucket with every row.
func Apply(rs []*records.Record, spec Spec) []*Group {
	if spec.Level1 == "" {
		return []*Group{{
			Key:     NoneKey,
			Buckets: []*Bucket{{Key: NoneKey, Rows: append([]*records.Record(nil), rs...)}},
		}}
	}

	nested := spec.Level2 != "" && spec.Level2 != spec.Level1

	groups := newOrderedMap[Key, *groupBuilder]()
	for _, r := range rs {
		gb := groups.getOrInsert(keyOf(r, spec.Level1), func() *groupBuilder {
			return &groupBuilder{buckets: newOrderedMap[Key, *Bucket]()}
		})
		bucketKey := NoneKey
		if nested {
			bucketKey = keyOf(r, spec.Level2)
		}
		b := gb.buckets.getOrInsert(bucketKey, func() *Bucket {
			return &Bucket{Key: bucketKey}
		})
		b.Rows = append(b.Rows, r)
	}

	result := make([]*Group, 0, groups.Len())
	for i, gb := range groups.Values() {
		result = append(result, &Group{
			Key:     groups.keys[i],
			Buckets: gb.buckets.Values(),
		})
	}
	return result
}

type groupBuilder struct {
	buckets *orderedMap[Key, *Bucket]
}

// Flatten concatenates the rows of every bucket, in bucket-then-row order.
func Flatten(groups []*Group) []*records.Record {
	var result []*records.Record
	for _, g := range groups {
		for _, b := range g.Buckets {
			result = append(result, b.Rows...)
		}
	}
	return result
}
