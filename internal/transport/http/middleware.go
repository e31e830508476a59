// Copyright 2026 The FacilityOS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/facilityos/facilityos/internal/authz"
	"github.com/facilityos/facilityos/internal/observability/logger"
)

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.UserAgent(r.UserAgent()),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// RequireSession rejects requests when no session is active. The core
// holds a single session per process; the UI surfaces share it.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.sessions.Current() == nil {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePage gates a route group on one page grant of the active
// session. Denials are counted and audited as access_denied.
func (h *Handler) RequirePage(page authz.PageKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := h.sessions.Current()
			if sess == nil {
				respondError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if !authz.HasPagePermission(sess.Permissions, page) {
				h.metrics.RecordAccessDenied(r.Context(), string(page))
				slog.WarnContext(r.Context(), "page access denied",
					logger.UserID(sess.UserID),
					logger.Portal(string(sess.Portal)),
					logger.Page(string(page)),
				)
				respondError(w, http.StatusForbidden, "page access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
