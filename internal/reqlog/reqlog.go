// Package reqlog prefixes log lines with the chi request id so that the
// steps of one request (order write, bill write, sync) can be traced together.
package reqlog

import (
	"context"
	"fmt"
	"log"

	"github.com/go-chi/chi/v5/middleware"
)

// Printf logs with a "[req=<id>] " prefix when ctx carries a request id.
func Printf(ctx context.Context, format string, args ...any) {
	log.Print(Prefix(ctx) + fmt.Sprintf(format, args...))
}

func Prefix(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return "[req=" + id + "] "
	}
	return ""
}
