package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithContextInjectsTraceAndUser(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "debug")

	ctx := ContextWithTrace(context.Background(), "trace-1", "span-1")
	ctx = ContextWithUser(ctx, 42)
	Info(ctx, "checkout started", "cart_items", 3)

	out := buf.String()
	assert.Contains(t, out, "trace_id=trace-1")
	assert.Contains(t, out, "span_id=span-1")
	assert.Contains(t, out, "user_id=42")
	assert.Contains(t, out, "cart_items=3")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "warn")

	Info(context.Background(), "hidden")
	Warn(context.Background(), "shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	assert.Equal(t, "INFO", parseLevel("nonsense").String())
	assert.Equal(t, "DEBUG", parseLevel("DEBUG").String())
}
