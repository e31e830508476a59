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

package audit

import (
	"context"
	"log/slog"
	"time"
)

// Event types
const (
	TypeLogin             = "login"
	TypeLogout            = "logout"
	TypeAdminLogin        = "admin_login"
	TypeAdminLoginFailed  = "admin_login_failed"
	TypeRoleSwitched      = "role_switched"
	TypeUserCreated       = "user_created"
	TypeUserUpdated       = "user_updated"
	TypeUserDeleted       = "user_deleted"
	TypePermissionsEdited = "permissions_edited"
	TypeAccessDenied      = "access_denied"
)

// Event describes one auditable action: who did what to which entity,
// with a human-readable delta summary.
type Event struct {
	Type      string         `json:"type"`
	ActorID   string         `json:"actorId"`
	ActorName string         `json:"actorName,omitempty"`
	Portal    string         `json:"portal,omitempty"`
	Resource  string         `json:"resource,omitempty"`
	Summary   string         `json:"summary,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Logger is the fire-and-forget audit contract. Log never blocks the
// caller and never surfaces delivery failures.
type Logger interface {
	Log(ctx context.Context, event Event)
}

// Sink receives events delivered by the dispatcher.
type Sink interface {
	Append(ctx context.Context, event Event)
}

// SlogSink writes audit events through the process logger.
type SlogSink struct{}

// NewSlogSink creates a slog-backed sink.
func NewSlogSink() *SlogSink {
	return &SlogSink{}
}

// Append records an audit event at INFO level.
func (s *SlogSink) Append(ctx context.Context, event Event) {
	attrs := []any{
		slog.String("audit_type", event.Type),
		slog.String("actor_id", event.ActorID),
		slog.String("portal", event.Portal),
		slog.String("resource", event.Resource),
		slog.Time("timestamp", event.Timestamp),
	}
	if event.Summary != "" {
		attrs = append(attrs, slog.String("summary", event.Summary))
	}
	if len(event.Metadata) > 0 {
		group := []any{}
		for k, v := range event.Metadata {
			if isSecret(k) {
				v = "[REDACTED]"
			}
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", group...))
	}
	slog.InfoContext(ctx, "AUDIT_EVENT", append(attrs, slog.String("component", "audit"))...)
}

// isSecret checks if a key likely contains a secret
func isSecret(key string) bool {
	secrets := []string{"password", "secret", "token", "pin", "authorization"}
	for _, s := range secrets {
		if key == s {
			return true
		}
	}
	return false
}
