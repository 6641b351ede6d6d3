// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"testing"
	"time"
)

func TestParseHelpers(t *testing.T) {
	t.Setenv("REELGEN_TEST_STR", "value")
	t.Setenv("REELGEN_TEST_INT", "42")
	t.Setenv("REELGEN_TEST_BAD_INT", "forty-two")
	t.Setenv("REELGEN_TEST_INT64", "1048576")
	t.Setenv("REELGEN_TEST_DUR", "45s")
	t.Setenv("REELGEN_TEST_BAD_DUR", "soon")
	t.Setenv("REELGEN_TEST_BOOL", "yes")
	t.Setenv("REELGEN_TEST_FLOAT", "0.25")

	if got := ParseString("REELGEN_TEST_STR", "d"); got != "value" {
		t.Errorf("ParseString = %q", got)
	}
	if got := ParseString("REELGEN_TEST_UNSET", "d"); got != "d" {
		t.Errorf("ParseString unset = %q", got)
	}
	if got := ParseInt("REELGEN_TEST_INT", 1); got != 42 {
		t.Errorf("ParseInt = %d", got)
	}
	if got := ParseInt("REELGEN_TEST_BAD_INT", 1); got != 1 {
		t.Errorf("ParseInt invalid = %d, want default", got)
	}
	if got := ParseInt64("REELGEN_TEST_INT64", 1); got != 1<<20 {
		t.Errorf("ParseInt64 = %d", got)
	}
	if got := ParseDuration("REELGEN_TEST_DUR", time.Second); got != 45*time.Second {
		t.Errorf("ParseDuration = %v", got)
	}
	if got := ParseDuration("REELGEN_TEST_BAD_DUR", time.Second); got != time.Second {
		t.Errorf("ParseDuration invalid = %v, want default", got)
	}
	if got := ParseBool("REELGEN_TEST_BOOL", false); !got {
		t.Errorf("ParseBool = %v", got)
	}
	if got := ParseFloat("REELGEN_TEST_FLOAT", 1); got != 0.25 {
		t.Errorf("ParseFloat = %v", got)
	}
}
