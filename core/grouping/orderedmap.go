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

// orderedMap is a map that preserves the order of insertion
type orderedMap[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

func newOrderedMap[K comparable, V any]() *orderedMap[K, V] {
	return &orderedMap[K, V]{
		keys:   make([]K, 0),
		values: make(map[K]V),
	}
}

// getOrInsert returns the value for key, inserting the result of create
// when the key is seen for the first time.
func (om *orderedMap[K, V]) getOrInsert(key K, create func() V) V {
	if v, exists := om.values[key]; exists {
		return v
	}
	v := create()
	om.keys = append(om.keys, key)
	om.values[key] = v
	return v
}

// Values returns all values in insertion order
func (om *orderedMap[K, V]) Values() []V {
	result := make([]V, len(om.keys))
	for i, k := range om.keys {
		result[i] = om.values[k]
	}
	return result
}

// Len returns the number of key-value pairs
func (om *orderedMap[K, V]) Len() int {
	return len(om.keys)
}
