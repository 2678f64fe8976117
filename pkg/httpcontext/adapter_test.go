package httpcontext

import (
	"testing"
	"time"

	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/collab/pkg/logger"
)

func TestAttach(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set("X-Request-ID", "req-1")
	ctx.Request.Header.Set("X-User-ID", "alice")

	stdCtx, cancel := NewAdapter(time.Second).Attach(ctx)
	defer cancel()

	if _, ok := stdCtx.Deadline(); !ok {
		t.Fatalf("expected a deadline")
	}
	if got := string(ctx.Response.Header.Peek("X-Request-ID")); got != "req-1" {
		t.Fatalf("request id not echoed, got %q", got)
	}
	if got := appLogger.UserIDFromContext(stdCtx); got != "alice" {
		t.Fatalf("user id = %q", got)
	}
}

func TestAttach_GeneratesRequestID(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	_, cancel := NewAdapter(0).Attach(ctx)
	defer cancel()
	if len(ctx.Response.Header.Peek("X-Request-ID")) == 0 {
		t.Fatalf("expected generated request id")
	}
}
