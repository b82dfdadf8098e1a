package common

import (
	"context"
	"strings"
	"time"

	"github.com/sandeepkv93/storefront-admin-api/internal/observability"
)

// Instrument wraps a tool action so each run records its outcome and duration.
// title is "<tool> <command>", e.g. "seed apply".
func Instrument(title string, fn func(context.Context) ([]string, error)) func(context.Context) ([]string, error) {
	tool, command, _ := strings.Cut(title, " ")
	return func(ctx context.Context) ([]string, error) {
		start := time.Now()
		details, err := fn(ctx)
		status := "success"
		if err != nil {
			status = "error"
		}
		observability.RecordToolCommandRun(ctx, tool, command, status)
		observability.RecordToolCommandDuration(ctx, tool, command, status, time.Since(start))
		return details, err
	}
}
