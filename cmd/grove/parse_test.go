package main

import (
	"strings"
	"testing"
)

func TestDecodeAutomaton(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		err     string
	}{
		{
			caption: "malformed JSON",
			src:     `{"name": `,
			err:     "automaton.json: cannot decode a compiled automaton",
		},
		{
			caption: "a defect has a file path",
			src:     `{"name": "broken", "method": "lalr"}`,
			err:     "automaton.json: method: error: unknown parsing method",
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			_, err := decodeAutomaton(strings.NewReader(tt.src), "automaton.json")
			if err == nil {
				t.Fatalf("an expected error didn't occur")
			}
			if !strings.Contains(err.Error(), tt.err) {
				t.Fatalf("unexpected error; want: %v, got: %v", tt.err, err)
			}
		})
	}
}
