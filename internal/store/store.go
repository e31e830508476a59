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

package store

import "context"

// Logical keys for the application state. The shapes behind these keys are
// versioned; a format change requires a new key, not an in-place rewrite.
const (
	KeySession  = "AUTH_SESSION_V1"
	KeyUsers    = "USERS_CACHE_V1"
	KeyAdminPIN = "MAIN_ADMIN_PIN_V1"
	KeyBranches = "BRANCHES_CACHE_V1"
	KeyAuditLog = "AUDIT_LOG_V1"
)

// Store is the external key-value store the core persists through.
// Implementations must provide synchronous read-after-write consistency
// within one process: a Get issued after a successful Set observes the
// written value.
type Store interface {
	// Get returns the value for key. The second return is false when the
	// key is absent; absence is not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes value under key, replacing any previous value atomically.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
