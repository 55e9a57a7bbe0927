package clog

import "testing"

func TestParseLevel_RoundTrips(t *testing.T) {
	for _, l := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		if got := ParseLevel(l.String()); got != l {
			t.Errorf("ParseLevel(%q) = %v, want %v", l.String(), got, l)
		}
	}
	if got := Level(99).String(); got != "UNKNOWN" {
		t.Errorf("Level(99).String() = %q", got)
	}
}

func TestParseLevel_AliasesAndFallback(t *testing.T) {
	cases := map[string]Level{
		"warning": LevelWarn,
		"err":     LevelError,
		" debug ": LevelDebug,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
