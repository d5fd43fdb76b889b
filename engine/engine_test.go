package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcc-lang/mcc/diag"
	"github.com/mcc-lang/mcc/engine"
)

func TestQuery_MemoizesResult(t *testing.T) {
	sess := engine.NewSession()
	calls := 0

	compute := func() int {
		calls++
		return 42
	}

	first := engine.Query(sess, "double", "x", compute)
	second := engine.Query(sess, "double", "x", compute)

	require.Equal(t, 42, first)
	require.Equal(t, 42, second)
	assert.Equal(t, 1, calls, "compute should only run once for an unchanged input")
}

func TestQuery_DistinctInputsDoNotShareCache(t *testing.T) {
	sess := engine.NewSession()
	calls := 0

	square := func(n int) func() int {
		return func() int {
			calls++
			return n * n
		}
	}

	a := engine.Query(sess, "square", 2, square(2))
	b := engine.Query(sess, "square", 3, square(3))

	assert.Equal(t, 4, a)
	assert.Equal(t, 9, b)
	assert.Equal(t, 2, calls)
}

func TestQuery_AccumulatesDiagnostics(t *testing.T) {
	sess := engine.NewSession()

	compute := func() int {
		sess.Emit(diag.Bug("unimplemented construct"))
		return 7
	}

	got := engine.Query(sess, "lower", "input", compute)
	require.Equal(t, 7, got)

	diags := engine.Accumulated(sess, "lower", "input")
	require.Len(t, diags, 1)
	assert.Equal(t, diag.Bug, diags[0].Severity)
}

func TestQuery_CacheHitReplaysDiagnostics(t *testing.T) {
	sess := engine.NewSession()
	compute := func() int {
		sess.Emit(diag.NewError("boom"))
		return 1
	}

	engine.Query(sess, "parse", "f", compute)
	engine.Query(sess, "parse", "f", compute) // cache hit, must not re-run compute

	diags := engine.Accumulated(sess, "parse", "f")
	require.Len(t, diags, 1)
}

func TestQuery_AccumulationComposesAcrossNestedQueries(t *testing.T) {
	sess := engine.NewSession()

	child := func() int {
		sess.Emit(diag.Bug("child diagnostic"))
		return 1
	}
	parent := func() int {
		sess.Emit(diag.NewError("parent diagnostic"))
		return engine.Query(sess, "child", "k", child)
	}

	engine.Query(sess, "parent", "k", parent)

	parentDiags := engine.Accumulated(sess, "parent", "k")
	require.Len(t, parentDiags, 2, "parent accumulation must include its own and its child's diagnostics")

	childDiags := engine.Accumulated(sess, "child", "k")
	require.Len(t, childDiags, 1)
}

func TestAccumulated_UnknownQueryReturnsEmpty(t *testing.T) {
	sess := engine.NewSession()
	diags := engine.Accumulated(sess, "never-ran", "x")
	assert.Empty(t, diags)
}

func TestEmit_PanicsOutsideQuery(t *testing.T) {
	sess := engine.NewSession()
	assert.Panics(t, func() {
		sess.Emit(diag.NewError("no activation"))
	})
}
