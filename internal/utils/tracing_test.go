package utils

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestTracerProviderLogsSpans(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	tp := NewTracerProvider(logger)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := tp.Tracer("test").Start(context.Background(), "channels.Search")
	span.SetAttributes(attribute.String("term", "KGF"))
	span.End()

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Span finished", entry.Message)
	assert.Equal(t, "channels.Search", entry.Data["span"])
	assert.Equal(t, "KGF", entry.Data["term"])
	assert.NotEmpty(t, entry.Data["trace_id"])
}
