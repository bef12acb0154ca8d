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

package sorting

import "github.com/threadworks/gridview/core/fields"

// Action is a state transition on a sort key list.
type Action interface {
	reduce(keys []Key) []Key
}

// AddKey appends a key. An existing key on the same field is replaced in place.
type AddKey struct{ Key Key }

// RemoveKey removes the key on Field.
type RemoveKey struct{ Field fields.Key }

// MoveKey moves the key at From to To.
type MoveKey struct{ From, To int }

// ToggleDirection flips the direction of the key on Field.
type ToggleDirection struct{ Field fields.Key }

// ClearKeys removes every key.
type ClearKeys struct{}

// Reduce applies an action and returns a new key list.
func Reduce(keys []Key, action Action) []Key {
	return action.reduce(Clone(keys))
}

// Clone returns a copy of the keys.
func Clone(keys []Key) []Key {
	if keys == nil {
		return nil
	}
	return append([]Key(nil), keys...)
}

func indexOf(keys []Key, field fields.Key) int {
	for i, k := range keys {
		if k.Field == field {
			return i
		}
	}
	return -1
}

func (a AddKey) reduce(keys []Key) []Key {
	k := a.Key.Normalize()
	if i := indexOf(keys, k.Field); i >= 0 {
		keys[i] = k
		return keys
	}
	return append(keys, k)
}

func (a RemoveKey) reduce(keys []Key) []Key {
	if i := indexOf(keys, a.Field); i >= 0 {
		return append(keys[:i], keys[i+1:]...)
	}
	return keys
}

func (a MoveKey) reduce(keys []Key) []Key {
	if a.From < 0 || a.From >= len(keys) || a.To < 0 || a.To >= len(keys) || a.From == a.To {
		return keys
	}
	k := keys[a.From]
	keys = append(keys[:a.From], keys[a.From+1:]...)
	keys = append(keys[:a.To], append([]Key{k}, keys[a.To:]...)...)
	return keys
}

func (a ToggleDirection) reduce(keys []Key) []Key {
	if i := indexOf(keys, a.Field); i >= 0 {
		k := keys[i].Normalize()
		if k.Direction == Desc {
			k.Direction = Asc
		} else {
			k.Direction = Desc
		}
		keys[i] = k
	}
	return keys
}

func (ClearKeys) reduce([]Key) []Key {
	return nil
}
