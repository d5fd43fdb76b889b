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

// Package engine implements the incremental memoization engine: pure
// queries over interned inputs, memoized by (query name, input), with a
// side channel of accumulated diagnostics that composes across nested
// query calls.
package engine

import (
	"fmt"
	"sync"

	"github.com/mcc-lang/mcc/diag"
)

// Session owns the memo table and the diagnostic-accumulation stack for
// one compilation. Per spec.md §5, a Session is safe for one active
// top-level query at a time; independent Sessions may run in parallel
// across goroutines provided they don't alias the same Session.
type Session struct {
	mu    sync.Mutex
	memo  map[cacheKey]entry
	stack []*frame
}

// NewSession creates an empty engine session.
func NewSession() *Session {
	return &Session{memo: make(map[cacheKey]entry)}
}

type cacheKey struct {
	query string
	input any
}

type entry struct {
	result any
	diags  []diag.Diagnostic
}

type frame struct {
	diags []diag.Diagnostic
}

// Emit records one diagnostic against the query currently being
// evaluated. It panics if called outside of a Query callback, since a
// diagnostic must always be attributed to some query invocation.
func (s *Session) Emit(d diag.Diagnostic) {
	if len(s.stack) == 0 {
		panic("engine: Emit called with no query activation")
	}
	top := s.stack[len(s.stack)-1]
	top.diags = append(top.diags, d)
}

// Query evaluates compute(input), memoizing the result (and the
// diagnostics emitted while computing it) under the key (name, input).
// Re-invocation with an equal input returns the cached result without
// re-running compute, and replays the same accumulated diagnostics into
// the caller's enclosing frame (if any) — accumulation composes: a
// parent query sees its own emissions plus every descendant's.
func Query[In comparable, Out any](s *Session, name string, input In, compute func() Out) Out {
	key := cacheKey{query: name, input: input}

	s.mu.Lock()
	if e, ok := s.memo[key]; ok {
		s.mu.Unlock()
		s.propagate(e.diags)
		return e.result.(Out)
	}
	s.mu.Unlock()

	s.stack = append(s.stack, &frame{})
	result := compute()
	f := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]

	s.mu.Lock()
	s.memo[key] = entry{result: result, diags: f.diags}
	s.mu.Unlock()

	s.propagate(f.diags)
	return result
}

// propagate copies diagnostics into the enclosing frame, if there is
// one, so a parent query's accumulated set includes everything its
// sub-queries accumulated.
func (s *Session) propagate(diags []diag.Diagnostic) {
	if len(s.stack) == 0 || len(diags) == 0 {
		return
	}
	parent := s.stack[len(s.stack)-1]
	parent.diags = append(parent.diags, diags...)
}

// Accumulated returns the diagnostics recorded the last time the named
// query was evaluated for this input (empty, not an error, if the query
// was never evaluated for that input).
func Accumulated[In comparable](s *Session, name string, input In) []diag.Diagnostic {
	key := cacheKey{query: name, input: input}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.memo[key]
	if !ok {
		return nil
	}
	return append([]diag.Diagnostic(nil), e.diags...)
}

// Key renders an arbitrary comparable input into a debug string. It is
// not the cache key, which is the typed input itself.
func Key(input any) string {
	return fmt.Sprintf("%#v", input)
}
