package driver

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/mcc-lang/mcc/diag"
)

func TestTimer_TimeStageReturnsDiagnosticsAndClearsFrame(t *testing.T) {
	timer := NewTimer(logrus.New())

	ran := false
	diags := timer.TimeStage("parse",
		func() []diag.Diagnostic { return []diag.Diagnostic{diag.NewError("boom")} },
		func() { ran = true },
	)

	assert.True(t, ran)
	assert.Len(t, diags, 1)
	assert.Empty(t, timer.stack, "TimeStage must pop its own frame")
}

func TestTimer_CancelClearsOpenFrames(t *testing.T) {
	timer := NewTimer(logrus.New())
	timer.Start("outer")
	timer.Start("inner")

	timer.Cancel()

	assert.Empty(t, timer.stack)
}

func TestTimer_PopOnEmptyStackIsNoop(t *testing.T) {
	timer := NewTimer(logrus.New())
	assert.NotPanics(t, func() { timer.Pop() })
}
