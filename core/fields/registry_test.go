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

package fields

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trimFields() []Field {
	return []Field{
		{Key: "trim_code", Type: TypeIdentifier, Required: true},
		{Key: "category", Type: TypeCategory, Options: []string{"Button", "Zipper", "Label"}},
		{Key: "description", Type: TypeText},
		{Key: "qty", Type: TypeNumber},
		{Key: "unit_price", Type: TypeCurrency},
		{Key: "line_total", Type: TypeComputed},
	}
}

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry(trimFields()...)
	require.NoError(t, err)

	assert.Equal(t, 6, r.Len())
	assert.Equal(t, []Key{"trim_code", "category", "description", "qty", "unit_price", "line_total"}, r.Keys())

	f, err := r.ByKey("qty")
	require.NoError(t, err)
	assert.Equal(t, TypeNumber, f.Type)
	assert.Equal(t, "qty", f.DisplayName())
}

func TestNewRegistryRejectsBadKeys(t *testing.T) {
	t.Run("duplicate", func(t *testing.T) {
		_, err := NewRegistry(Field{Key: "a"}, Field{Key: "a"})
		assert.Error(t, err)
	})
	t.Run("empty", func(t *testing.T) {
		_, err := NewRegistry(Field{Key: ""})
		assert.Error(t, err)
	})
	t.Run("reserved character", func(t *testing.T) {
		_, err := NewRegistry(Field{Key: "a:b"})
		assert.Error(t, err)
	})
}

func TestByKeyUnknown(t *testing.T) {
	r, err := NewRegistry(trimFields()...)
	require.NoError(t, err)

	_, err = r.ByKey("colour")
	var unknown *UnknownFieldError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, Key("colour"), unknown.Key)

	assert.Panics(t, func() { r.MustByKey("colour") })

	err = r.Validate("sort", "qty", "colour")
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "sort: unknown field \"colour\"", err.Error())
}

func TestFilterableByDefault(t *testing.T) {
	r, err := NewRegistry(trimFields()...)
	require.NoError(t, err)

	var keys []Key
	for _, f := range r.FilterableByDefault() {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []Key{"category", "description", "qty", "unit_price"}, keys)
}

func TestParseType(t *testing.T) {
	for _, typ := range []Type{TypeText, TypeNumber, TypeCurrency, TypeDate, TypeCategory, TypeComputed, TypeIdentifier} {
		parsed, err := ParseType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}
	_, err := ParseType("blob")
	assert.Error(t, err)
}

func TestHasOption(t *testing.T) {
	f := Field{Key: "category", Type: TypeCategory, Options: []string{"Button"}}
	assert.True(t, f.HasOption("Button"))
	assert.False(t, f.HasOption("button"))
	assert.True(t, Field{Key: "x"}.HasOption("anything"))
}
