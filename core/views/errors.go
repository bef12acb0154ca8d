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

package views

import (
	"errors"
	"fmt"
)

// Error types for classifying view store failures.

// ErrEmptyName is returned when a view name is blank after trimming.
var ErrEmptyName = errors.New("view name must not be empty")

// ReservedNameError is returned when saving or renaming to the name of the
// Default view, in any letter case.
type ReservedNameError struct {
	Name string
}

func (e *ReservedNameError) Error() string {
	return fmt.Sprintf("view name %q is reserved", e.Name)
}

// LockedViewError is returned when a locked view would be overwritten,
// renamed or deleted.
type LockedViewError struct {
	Name string
	Op   string
}

func (e *LockedViewError) Error() string {
	return fmt.Sprintf("cannot %s view %q: view is locked", e.Op, e.Name)
}

// DuplicateNameError is returned when a name collides with another view.
type DuplicateNameError struct {
	Name     string
	Existing string
}

func (e *DuplicateNameError) Error() string {
	if e.Existing != "" && e.Existing != e.Name {
		return fmt.Sprintf("view name %q collides with existing view %q", e.Name, e.Existing)
	}
	return fmt.Sprintf("view %q already exists", e.Name)
}

// NotFoundError is returned when no view has the given name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("view %q not found", e.Name)
}

// IsReservedName reports whether err is a ReservedNameError.
func IsReservedName(err error) bool {
	var target *ReservedNameError
	return errors.As(err, &target)
}

// IsLocked reports whether err is a LockedViewError.
func IsLocked(err error) bool {
	var target *LockedViewError
	return errors.As(err, &target)
}

// IsDuplicateName reports whether err is a DuplicateNameError.
func IsDuplicateName(err error) bool {
	var target *DuplicateNameError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}
