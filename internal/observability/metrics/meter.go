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

package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Config holds metrics configuration
type Config struct {
	Enabled bool
}

// Meter wraps OpenTelemetry meter
type Meter struct {
	meter metric.Meter
}

// New creates a new meter instance
func New(ctx context.Context, cfg Config, serviceName string) (*Meter, error) {
	if !cfg.Enabled {
		return &Meter{
			meter: otel.Meter("noop"),
		}, nil
	}
	return &Meter{
		meter: otel.Meter(serviceName),
	}, nil
}

// AuthMetrics carries the counters the authorization surface reports.
type AuthMetrics struct {
	Logins       metric.Int64Counter
	LoginDenied  metric.Int64Counter
	AccessDenied metric.Int64Counter
}

// NewAuthMetrics registers the authorization counters on the meter.
func NewAuthMetrics(m *Meter) (*AuthMetrics, error) {
	logins, err := m.meter.Int64Counter(
		"auth_logins_total",
		metric.WithDescription("Successful logins, by portal"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter auth_logins_total: %w", err)
	}
	loginDenied, err := m.meter.Int64Counter(
		"auth_logins_denied_total",
		metric.WithDescription("Rejected login attempts"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter auth_logins_denied_total: %w", err)
	}
	accessDenied, err := m.meter.Int64Counter(
		"authz_access_denied_total",
		metric.WithDescription("Requests denied by the permission or portal guard"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter authz_access_denied_total: %w", err)
	}
	return &AuthMetrics{
		Logins:       logins,
		LoginDenied:  loginDenied,
		AccessDenied: accessDenied,
	}, nil
}

// RecordLogin counts one successful login for a portal.
func (a *AuthMetrics) RecordLogin(ctx context.Context, portal string) {
	if a == nil {
		return
	}
	a.Logins.Add(ctx, 1, metric.WithAttributes(attribute.String("portal", portal)))
}

// RecordLoginDenied counts one rejected login attempt.
func (a *AuthMetrics) RecordLoginDenied(ctx context.Context) {
	if a == nil {
		return
	}
	a.LoginDenied.Add(ctx, 1)
}

// RecordAccessDenied counts one guarded request that was denied.
func (a *AuthMetrics) RecordAccessDenied(ctx context.Context, page string) {
	if a == nil {
		return
	}
	a.AccessDenied.Add(ctx, 1, metric.WithAttributes(attribute.String("page", page)))
}
