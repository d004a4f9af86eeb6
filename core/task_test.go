package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTask_Signature_Deterministic(t *testing.T) {
	t1 := Task{
		AgentName: "risk",
		Method:    "assess",
		Args:      []any{"ACME", 30},
		Kwargs:    map[string]any{"window": "30d", "depth": 2},
	}
	t2 := Task{
		AgentName: "risk",
		Method:    "assess",
		Args:      []any{"ACME", 30},
		Kwargs:    map[string]any{"depth": 2, "window": "30d"},
	}
	assert.Equal(t, t1.Signature(), t2.Signature())
}

func TestTask_Signature_DivergesOnInputs(t *testing.T) {
	base := Task{AgentName: "risk", Method: "assess", Args: []any{"ACME"}}

	diffAgent := base
	diffAgent.AgentName = "news"
	diffMethod := base
	diffMethod.Method = "score"
	diffArgs := base
	diffArgs.Args = []any{"NYSE"}

	sig := base.Signature()
	assert.NotEqual(t, sig, diffAgent.Signature())
	assert.NotEqual(t, sig, diffMethod.Signature())
	assert.NotEqual(t, sig, diffArgs.Signature())
}

func TestTask_EffectiveTimeout(t *testing.T) {
	assert.Equal(t, DefaultTaskTimeout, (&Task{}).EffectiveTimeout())
	assert.Equal(t, time.Second, (&Task{Timeout: time.Second}).EffectiveTimeout())
}

func TestTaskResult_Status(t *testing.T) {
	assert.Equal(t, TaskSucceeded, (&TaskResult{Success: true}).Status())
	assert.Equal(t, TaskFailed, (&TaskResult{Err: errors.New("boom")}).Status())
	assert.Equal(t, TaskTimedOut, (&TaskResult{Err: ErrTimeout}).Status())
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(ErrTimeout))
	assert.False(t, IsTimeout(errors.New("boom")))
	assert.False(t, IsTimeout(nil))
}
