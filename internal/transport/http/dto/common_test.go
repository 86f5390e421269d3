package dto

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		err  bool
	}{
		{`50000`, "50000", false},
		{`"2500.50"`, "2500.5", false},
		{`" 10 "`, "10", false},
		{`0`, "", true},
		{`-1`, "", true},
		{`"abc"`, "", true},
		{`null`, "", true},
		{``, "", true},
		{`true`, "", true},
		{`"0.10"`, "0.1", false},
		{`0.001`, "", true},
		{`"0.004"`, "", true},
		{`1e-9`, "", true},
		{`1e16`, "", true},
	}
	for _, tt := range tests {
		got, err := ParseAmount(json.RawMessage(tt.raw))
		if tt.err {
			if !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("ParseAmount(%s): expected ErrInvalidAmount, got %v", tt.raw, err)
			}
			continue
		}
		if err != nil || got.String() != tt.want {
			t.Errorf("ParseAmount(%s) = %s, %v; want %s", tt.raw, got, err, tt.want)
		}
	}
}
