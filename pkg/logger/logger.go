// Package logger adds trace correlation to the standard logger.
package logger

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel/trace"
)

// Printf logs like log.Printf, prefixed with the trace id carried by ctx when there is one.
func Printf(ctx context.Context, format string, args ...any) {
	log.Print(prefix(ctx) + fmt.Sprintf(format, args...))
}

func prefix(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return fmt.Sprintf("trace_id=%s ", sc.TraceID().String())
}
