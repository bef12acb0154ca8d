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

package server

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/threadworks/gridview/core/aggregates"
	"github.com/threadworks/gridview/core/fields"
	"github.com/threadworks/gridview/core/grouping"
	"github.com/threadworks/gridview/core/query"
	"github.com/threadworks/gridview/core/records"
	"github.com/threadworks/gridview/core/tables"
	"github.com/threadworks/gridview/core/views"
)

type aggregateJSON struct {
	aggregates.Result
	Display string `json:"display"`
}

type bucketJSON struct {
	Key        string                       `json:"key"`
	Blank      bool                         `json:"blank,omitempty"`
	Count      int                          `json:"count"`
	Aggregates map[fields.Key]aggregateJSON `json:"aggregates,omitempty"`
}

type groupJSON struct {
	bucketJSON
	Buckets []bucketJSON `json:"buckets,omitempty"`
}

type linksJSON struct {
	Self string `json:"self"`
	// Sort cycles the sort of each visible column.
	Sort map[fields.Key]string `json:"sort"`
}

// rowsResponse is the body of GET /rows. Preview is set when the rows were
// computed from the query string or a named view instead of the live
// configuration.
type rowsResponse struct {
	Table         string                       `json:"table"`
	ActiveView    string                       `json:"active_view"`
	Locked        bool                         `json:"locked"`
	Dirty         bool                         `json:"dirty"`
	Preview       bool                         `json:"preview,omitempty"`
	ActiveFilters int                          `json:"active_filters"`
	Total         int                          `json:"total"`
	Visible       int                          `json:"visible"`
	Config        views.Config                 `json:"config"`
	Columns       []fields.Field               `json:"columns"`
	Rows          []*records.Record            `json:"rows"`
	Group         grouping.Spec                `json:"group"`
	Groups        []groupJSON                  `json:"groups,omitempty"`
	Aggregates    map[fields.Key]aggregateJSON `json:"aggregates,omitempty"`
	Links         linksJSON                    `json:"links"`
}

// configFor resolves the configuration a rows request asks for: the query
// parameters when present, else the named view, else the live configuration.
// The view is returned when the request named one without overrides.
func configFor(q *query.Query, tv *tables.TableView) (views.Config, *views.View, int, error) {
	if q.HasConfig() {
		c, err := q.ToConfig(tv.Registry())
		if err != nil {
			return views.Config{}, nil, http.StatusBadRequest, err
		}
		return c, nil, http.StatusOK, nil
	}
	if q.View != "" {
		for _, v := range tv.Views() {
			if v.Name == q.View {
				return v.Config, &v, http.StatusOK, nil
			}
		}
		return views.Config{}, nil, http.StatusNotFound, &views.NotFoundError{Name: q.View}
	}
	return tv.Live(), nil, http.StatusOK, nil
}

func (s *Server) getRows(w http.ResponseWriter, r *http.Request, e *tableEntry) {
	q := query.NewQuery(r.URL)
	c, named, status, err := configFor(q, e.view)
	if err != nil {
		s.writeError(w, status, err)
		return
	}
	res, err := e.view.ComputeWith(e.records.All(), c)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if named != nil {
		// The rows are exactly the named view.
		res.ActiveView, res.Locked, res.Dirty = named.Name, named.Locked, false
	}
	preview := q.HasConfig() || named != nil

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, err := io.WriteString(w, res.ToAscii(s.formatter)); err != nil {
			s.logger.Warn("failed to write response", slog.String("error", err.Error()))
		}
		return
	}
	s.writeJSON(w, http.StatusOK, s.rowsResponse(res, c, q, preview))
}

func (s *Server) rowsResponse(res *tables.Result, c views.Config, q *query.Query, preview bool) rowsResponse {
	rows := res.Rows
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	self := query.FromConfig(q.Path, res.ActiveView, c)
	self.Limit = q.Limit
	links := linksJSON{Self: self.ToSafeURL().String(), Sort: make(map[fields.Key]string, len(res.Columns))}
	for _, f := range res.Columns {
		links.Sort[f.Key] = self.WithSortToggled(string(f.Key)).String()
	}

	out := rowsResponse{
		Table:         res.Table,
		ActiveView:    res.ActiveView,
		Locked:        res.Locked,
		Dirty:         res.Dirty,
		Preview:       preview,
		ActiveFilters: res.ActiveFilters,
		Total:         res.Total,
		Visible:       res.Visible(),
		Config:        c,
		Columns:       res.Columns,
		Rows:          rows,
		Group:         res.Group,
		Aggregates:    s.aggregatesJSON(res.Aggregates),
		Links:         links,
	}
	if res.Group.Enabled() {
		out.Groups = s.groupsJSON(res)
	}
	return out
}

func (s *Server) aggregatesJSON(a tables.Aggregates) map[fields.Key]aggregateJSON {
	if len(a) == 0 {
		return nil
	}
	out := make(map[fields.Key]aggregateJSON, len(a))
	for k, r := range a {
		out[k] = aggregateJSON{Result: r, Display: s.formatter.Format(r)}
	}
	return out
}

func (s *Server) groupsJSON(res *tables.Result) []groupJSON {
	out := make([]groupJSON, len(res.Groups))
	for i, g := range res.Groups {
		gj := groupJSON{bucketJSON: bucketJSON{Key: g.Key.String(), Blank: g.Key.IsBlank(), Count: g.Len()}}
		var totals *tables.GroupTotals
		if res.Subtotals != nil {
			totals = &res.Subtotals[i]
			gj.Aggregates = s.aggregatesJSON(totals.Aggregates)
		}
		for j, b := range g.Buckets {
			if b.Key.IsNone() {
				continue
			}
			bj := bucketJSON{Key: b.Key.String(), Blank: b.Key.IsBlank(), Count: b.Len()}
			if totals != nil {
				bj.Aggregates = s.aggregatesJSON(totals.Buckets[j])
			}
			gj.Buckets = append(gj.Buckets, bj)
		}
		out[i] = gj
	}
	return out
}
