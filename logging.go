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

package main

import (
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/lmittmann/tint"
	"github.com/threadworks/gridview/config"
)

// newLogger builds the process logger. Flag values win over the config;
// an unknown level falls back to info.
func newLogger(flagLevel, flagFormat string, cfg config.LogConfig) *slog.Logger {
	if flagLevel != "" {
		cfg.Level = flagLevel
	}
	if flagFormat != "" {
		cfg.Format = flagFormat
	}
	level, _ := cfg.SlogLevel()
	return slog.New(newHandler(os.Stderr, level, cfg.Format))
}

func newHandler(w io.Writer, level slog.Level, format string) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return tint.NewHandler(w, &tint.Options{
		NoColor:    runtime.GOOS == "windows",
		Level:      level,
		TimeFormat: time.TimeOnly,
		AddSource:  level <= slog.LevelDebug,
	})
}
