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

package authz

// HasPagePermission reports whether the grant allows reaching page.
// A nil Permissions or a missing key denies.
func HasPagePermission(p *Permissions, page PageKey) bool {
	if p == nil || p.Pages == nil {
		return false
	}
	return p.Pages[page]
}

// HasActionPermission reports whether the grant allows action within
// module. A nil Permissions or any missing key denies.
func HasActionPermission(p *Permissions, module ModuleKey, action ActionKey) bool {
	if p == nil || p.Actions == nil {
		return false
	}
	granted, ok := p.Actions[module]
	if !ok {
		return false
	}
	return granted[action]
}
