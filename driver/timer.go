// Copyright 2022 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package driver

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mcc-lang/mcc/diag"
)

// Timer is a stack of named, nested timing frames logged at debug level
// as they start and finish. Stages push a frame with Start, do their
// work, and Pop it; TimeIt wraps that pattern around a thunk.
type Timer struct {
	log   *logrus.Entry
	stack []timerFrame
}

type timerFrame struct {
	label   string
	started time.Time
}

// NewTimer creates a Timer that logs through log, tagged with a
// "phase"="timer" field.
func NewTimer(log *logrus.Logger) *Timer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Timer{log: log.WithField("phase", "timer")}
}

// TimeIt runs thunk as one timing frame labelled label.
func (t *Timer) TimeIt(label string, thunk func()) {
	t.Start(label)
	defer t.Pop()
	thunk()
}

// Start pushes a new timing frame.
func (t *Timer) Start(label string) {
	t.log.WithField("label", label).Debug("starting new timer frame")
	t.stack = append(t.stack, timerFrame{label: label, started: time.Now()})
}

// Pop closes the most recently started frame and logs its duration. It
// is a no-op if no frame is open.
func (t *Timer) Pop() {
	if len(t.stack) == 0 {
		return
	}
	frame := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]

	t.log.WithFields(logrus.Fields{
		"label":   frame.label,
		"seconds": time.Since(frame.started).Seconds(),
	}).Debug("pass finished")
}

// Cancel discards every open frame without logging, used when a
// compilation is abandoned mid-stage.
func (t *Timer) Cancel() {
	t.stack = nil
}

// TimeStage runs thunk as one timing frame labelled stage, then logs a
// single structured event carrying stage/elapsed/diagnostic_count, plus
// a Warn event for every diagnostic thunk's query accumulated at or
// above Error severity.
func (t *Timer) TimeStage(stage string, diags func() []diag.Diagnostic, thunk func()) []diag.Diagnostic {
	t.Start(stage)
	thunk()
	frame := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]

	stageDiags := diags()
	t.log.WithFields(logrus.Fields{
		"stage":            stage,
		"elapsed":          time.Since(frame.started).Seconds(),
		"diagnostic_count": len(stageDiags),
	}).Debug("stage finished")

	for _, d := range stageDiags {
		if d.Severity >= diag.Error {
			t.log.WithFields(logrus.Fields{"stage": stage, "code": d.Code}).Warn(d.Message)
		}
	}

	return stageDiags
}

