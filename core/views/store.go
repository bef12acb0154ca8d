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

// Package views keeps the named view configurations of one table together
// with the live configuration the user is editing.
//
// The store always holds exactly one locked view named Default. Loading a
// view copies its configuration into the live configuration; saving copies
// the live configuration back. IsDirty tells whether the live configuration
// has drifted from the active view.
package views

import (
	"log/slog"
	"slices"
	"strings"
)

// DefaultName is the name of the locked view every store starts with.
const DefaultName = "Default"

// View is a named, persisted configuration.
type View struct {
	Name   string `json:"name" yaml:"name"`
	Config Config `json:"config" yaml:",inline"`
	Locked bool   `json:"locked" yaml:"-"`
}

// Store holds the views of one table. It is not safe for concurrent use.
type Store struct {
	views  []*View
	active string
	live   Config
	logger *slog.Logger
}

// NewStore creates a store whose Default view holds defaultConfig. The live
// configuration starts as a copy of it.
func NewStore(defaultConfig Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		views:  []*View{{Name: DefaultName, Config: defaultConfig.Clone(), Locked: true}},
		active: DefaultName,
		live:   defaultConfig.Clone(),
		logger: logger,
	}
}

func isReserved(name string) bool {
	return strings.EqualFold(name, DefaultName)
}

func (s *Store) find(name string) *View {
	for _, v := range s.views {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// findFold returns the first view whose name matches case-insensitively.
func (s *Store) findFold(name string) *View {
	for _, v := range s.views {
		if strings.EqualFold(v.Name, name) {
			return v
		}
	}
	return nil
}

// Views returns copies of every view in creation order, Default first.
func (s *Store) Views() []View {
	out := make([]View, len(s.views))
	for i, v := range s.views {
		out[i] = View{Name: v.Name, Config: v.Config.Clone(), Locked: v.Locked}
	}
	return out
}

// View returns a copy of the named view.
func (s *Store) View(name string) (View, error) {
	v := s.find(name)
	if v == nil {
		return View{}, &NotFoundError{Name: name}
	}
	return View{Name: v.Name, Config: v.Config.Clone(), Locked: v.Locked}, nil
}

// Active returns a copy of the active view.
func (s *Store) Active() View {
	v, err := s.View(s.active)
	if err != nil {
		// The active name always refers to a stored view.
		panic(err)
	}
	return v
}

// ActiveName returns the name of the active view.
func (s *Store) ActiveName() string {
	return s.active
}

// Live returns a copy of the live configuration.
func (s *Store) Live() Config {
	return s.live.Clone()
}

// SetLive replaces the live configuration with a copy of c.
func (s *Store) SetLive(c Config) {
	s.live = c.Clone()
}

// Load makes name the active view and copies its configuration into the
// live configuration.
func (s *Store) Load(name string) error {
	v := s.find(name)
	if v == nil {
		return &NotFoundError{Name: name}
	}
	s.active = v.Name
	s.live = v.Config.Clone()
	s.logger.Debug("view loaded", slog.String("view", v.Name))
	return nil
}

// Save stores the live configuration under name and makes it the active
// view. An existing view of that name is overwritten unless it is locked.
func (s *Store) Save(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if isReserved(name) {
		return &ReservedNameError{Name: name}
	}
	if existing := s.find(name); existing != nil {
		if existing.Locked {
			return &LockedViewError{Name: name, Op: "overwrite"}
		}
		existing.Config = s.live.Clone()
		s.active = existing.Name
		s.logger.Debug("view overwritten", slog.String("view", name))
		return nil
	}
	if clash := s.findFold(name); clash != nil {
		return &DuplicateNameError{Name: name, Existing: clash.Name}
	}
	s.views = append(s.views, &View{Name: name, Config: s.live.Clone()})
	s.active = name
	s.logger.Debug("view created", slog.String("view", name))
	return nil
}

// Seed adds a saved view without touching the live configuration. It
// applies the same naming rules as Save.
func (s *Store) Seed(v View) error {
	name := strings.TrimSpace(v.Name)
	if name == "" {
		return ErrEmptyName
	}
	if isReserved(name) {
		return &ReservedNameError{Name: name}
	}
	if clash := s.findFold(name); clash != nil {
		return &DuplicateNameError{Name: name, Existing: clash.Name}
	}
	s.views = append(s.views, &View{Name: name, Config: v.Config.Clone()})
	s.logger.Debug("view seeded", slog.String("view", name))
	return nil
}

// Update saves the live configuration into the active view. The Default view
// is never modified.
func (s *Store) Update() error {
	v := s.find(s.active)
	if v.Locked {
		return &LockedViewError{Name: v.Name, Op: "update"}
	}
	return s.Save(v.Name)
}

// Rename gives a view a new name, keeping its configuration. The active view
// follows the rename.
func (s *Store) Rename(oldName, newName string) error {
	v := s.find(oldName)
	if v == nil {
		return &NotFoundError{Name: oldName}
	}
	if v.Locked {
		return &LockedViewError{Name: oldName, Op: "rename"}
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrEmptyName
	}
	if isReserved(newName) {
		return &ReservedNameError{Name: newName}
	}
	if newName == oldName {
		return nil
	}
	if clash := s.findFold(newName); clash != nil && clash != v {
		return &DuplicateNameError{Name: newName, Existing: clash.Name}
	}
	v.Name = newName
	if s.active == oldName {
		s.active = newName
	}
	s.logger.Debug("view renamed", slog.String("from", oldName), slog.String("to", newName))
	return nil
}

// Delete removes a view. Deleting the active view falls back to Default and
// reloads the live configuration from it.
func (s *Store) Delete(name string) error {
	i := slices.IndexFunc(s.views, func(v *View) bool { return v.Name == name })
	if i < 0 {
		return &NotFoundError{Name: name}
	}
	if s.views[i].Locked {
		return &LockedViewError{Name: name, Op: "delete"}
	}
	s.views = slices.Delete(s.views, i, i+1)
	s.logger.Debug("view deleted", slog.String("view", name))
	if s.active == name {
		return s.Load(DefaultName)
	}
	return nil
}

// IsDirty reports whether the live configuration differs from the active
// view. Filters and sorts are order-sensitive; hidden columns are a set.
func (s *Store) IsDirty() bool {
	return !Equal(s.live, s.find(s.active).Config)
}
