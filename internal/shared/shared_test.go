package shared

import (
	"reflect"
	"testing"

	"github.com/charmbracelet/log"
)

func TestSplitTokens(t *testing.T) {
	tc := []struct {
		name      string
		value     string
		delimiter string
		want      []string
	}{
		{
			name:      "comma separated",
			value:     "House, Techno",
			delimiter: ",",
			want:      []string{"House", "Techno"},
		},
		{
			name:      "empty segments dropped",
			value:     " House ,, ,Techno ",
			delimiter: ",",
			want:      []string{"House", "Techno"},
		},
		{
			name:      "slash delimiter",
			value:     "Dubstep / Halftime",
			delimiter: "/",
			want:      []string{"Dubstep", "Halftime"},
		},
		{
			name:      "no delimiter keeps whole value",
			value:     "  Drum and Bass ",
			delimiter: "",
			want:      []string{"Drum and Bass"},
		},
		{
			name:      "blank value",
			value:     "   ",
			delimiter: ",",
			want:      nil,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitTokens(tt.value, tt.delimiter)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitTokens() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestFoldToken(t *testing.T) {
	tc := []struct {
		a, b string
	}{
		{"House", "house"},
		{"  TECHNO ", "techno"},
		{"Straße", "STRASSE"},
	}

	for _, tt := range tc {
		if FoldToken(tt.a) != FoldToken(tt.b) {
			t.Errorf("FoldToken(%q) != FoldToken(%q)", tt.a, tt.b)
		}
	}

	if FoldToken("House") == FoldToken("Deep House") {
		t.Error("distinct tokens should not fold together")
	}
}

func TestParseLogLevel(t *testing.T) {
	tc := map[string]log.Level{
		"debug":   log.DebugLevel,
		" WARN ":  log.WarnLevel,
		"error":   log.ErrorLevel,
		"":        log.InfoLevel,
		"verbose": log.InfoLevel,
	}

	for in, want := range tc {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected unique IDs")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string length 36, got %d", len(a))
	}
}
