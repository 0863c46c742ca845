package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name     string
		incoming string
		reused   bool
	}{
		{name: "generated", incoming: ""},
		{name: "valid uuid reused", incoming: "123e4567-e89b-12d3-a456-426614174000", reused: true},
		{name: "garbage replaced", incoming: "not-a-uuid"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RequestID())
			var seen string
			var scoped bool
			r.GET("/", func(c *gin.Context) {
				seen = c.GetString(RequestIDKey)
				scoped = zerolog.Ctx(c.Request.Context()).GetLevel() != zerolog.Disabled
				c.String(200, "ok")
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.incoming != "" {
				req.Header.Set(RequestIDHeader, tc.incoming)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get(RequestIDHeader)
			if got == "" || got != seen {
				t.Fatalf("header %q, context %q", got, seen)
			}
			if !scoped {
				t.Fatalf("request context carries no logger")
			}
			if (got == tc.incoming) != tc.reused {
				t.Fatalf("incoming %q, got %q, want reused=%v", tc.incoming, got, tc.reused)
			}
		})
	}
}
