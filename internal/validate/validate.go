// SPDX-License-Identifier: MIT

// Package validate collects every problem in a configuration before reporting,
// so a user fixes a broken file in one pass.
package validate

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"
	"time"
)

// LogLevels lists the accepted log_level values, most verbose first.
var LogLevels = []string{"debug", "info", "warn", "error"}

// Problem is one invalid field.
type Problem struct {
	Field   string
	Value   any
	Message string
}

func (p Problem) String() string {
	return p.Field + ": " + p.Message
}

// Errors is returned for a configuration with at least one problem.
type Errors []Problem

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, p := range e {
		parts[i] = p.String()
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}

// Fields lists the offending fields in report order.
func (e Errors) Fields() []string {
	out := make([]string, len(e))
	for i, p := range e {
		out[i] = p.Field
	}
	return out
}

// Validator accumulates problems field by field.
type Validator struct {
	problems Errors
}

// New returns an empty Validator.
func New() *Validator {
	return &Validator{}
}

// Addf records a problem for field.
func (v *Validator) Addf(field string, value any, format string, args ...any) {
	v.problems = append(v.problems, Problem{Field: field, Value: value, Message: fmt.Sprintf(format, args...)})
}

// Err returns the collected problems as Errors, or nil.
func (v *Validator) Err() error {
	if len(v.problems) == 0 {
		return nil
	}
	return slices.Clone(v.problems)
}

// URL requires an absolute URL with one of schemes and no query or fragment,
// since endpoint paths are appended to it.
func (v *Validator) URL(field, value string, schemes ...string) {
	u, err := url.Parse(value)
	switch {
	case value == "":
		v.Addf(field, value, "must be set")
	case err != nil:
		v.Addf(field, value, "not a URL: %v", err)
	case u.Host == "":
		v.Addf(field, value, "missing host")
	case u.RawQuery != "" || u.Fragment != "":
		v.Addf(field, value, "must not carry a query or fragment")
	case len(schemes) > 0 && !slices.Contains(schemes, u.Scheme):
		v.Addf(field, value, "scheme %q not in %v", u.Scheme, schemes)
	}
}

// ListenAddr requires host:port; the host may be empty.
func (v *Validator) ListenAddr(field, addr string) {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		v.Addf(field, addr, "not a listen address: %v", err)
		return
	}
	if port == "" {
		v.Addf(field, addr, "missing port")
	}
}

// IntRange requires lo <= value <= hi.
func (v *Validator) IntRange(field string, value, lo, hi int) {
	if value < lo || value > hi {
		v.Addf(field, value, "must be between %d and %d, got %d", lo, hi, value)
	}
}

// FloatRange requires lo <= value <= hi.
func (v *Validator) FloatRange(field string, value, lo, hi float64) {
	if value < lo || value > hi {
		v.Addf(field, value, "must be between %g and %g, got %g", lo, hi, value)
	}
}

// PositiveDuration requires d > 0.
func (v *Validator) PositiveDuration(field string, d time.Duration) {
	if d <= 0 {
		v.Addf(field, d, "must be a positive duration, got %s", d)
	}
}

// PositiveInt requires n > 0.
func (v *Validator) PositiveInt(field string, n int64) {
	if n <= 0 {
		v.Addf(field, n, "must be positive, got %d", n)
	}
}

// NotBlank requires a value that is not empty after trimming.
func (v *Validator) NotBlank(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Addf(field, value, "must be set")
	}
}

// OneOf requires value to be exactly one of allowed.
func (v *Validator) OneOf(field, value string, allowed []string) {
	if !slices.Contains(allowed, value) {
		v.Addf(field, value, "must be one of %v, got %q", allowed, value)
	}
}

// AbsPath requires a path starting with "/".
func (v *Validator) AbsPath(field, value string) {
	if !strings.HasPrefix(value, "/") {
		v.Addf(field, value, "must be an absolute path")
	}
}

// LogLevel requires one of LogLevels.
func (v *Validator) LogLevel(field, value string) {
	v.OneOf(field, value, LogLevels)
}
