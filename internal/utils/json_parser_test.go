package utils

import (
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]interface{}
		wantErr bool
	}{
		{
			name:  "Pure JSON",
			input: `{"cause": "fungus", "severity": 2}`,
			want: map[string]interface{}{
				"cause":    "fungus",
				"severity": float64(2),
			},
			wantErr: false,
		},
		{
			name: "JSON in markdown code block",
			input: "```json\n" +
				`{"cause": "bacterial infection"}` + "\n```",
			want: map[string]interface{}{
				"cause": "bacterial infection",
			},
			wantErr: false,
		},
		{
			name:  "JSON with surrounding text",
			input: `Here is the advice: {"chemical": "copper fungicide", "ok": true} hope it helps.`,
			want: map[string]interface{}{
				"chemical": "copper fungicide",
				"ok":       true,
			},
			wantErr: false,
		},
		{
			name:  "JSON with trailing comma",
			input: `{"organic": "neem oil",}`,
			want: map[string]interface{}{
				"organic": "neem oil",
			},
			wantErr: false,
		},
		{
			name:  "JSON with unquoted keys",
			input: `{prevention: "crop rotation"}`,
			want: map[string]interface{}{
				"prevention": "crop rotation",
			},
			wantErr: false,
		},
		{
			name:  "JSON behind a BOM with trailing comma",
			input: "\ufeff" + `{"immediate": "remove leaves",}`,
			want: map[string]interface{}{
				"immediate": "remove leaves",
			},
			wantErr: false,
		},
		{
			name:    "Empty string",
			input:   "",
			want:    nil,
			wantErr: true,
		},
		{
			name:    "Plain prose",
			input:   "CAUSE: fungal spores spread by rain",
			want:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]interface{}
			err := ExtractJSON(tt.input, &got)

			if (err != nil) != tt.wantErr {
				t.Errorf("ExtractJSON() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr {
				return
			}

			if len(got) != len(tt.want) {
				t.Fatalf("ExtractJSON() got = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("ExtractJSON() key %q = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestExtractFromMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "JSON code block with json tag",
			input: "```json\n{\"test\": true}\n```",
			want:  `{"test": true}`,
		},
		{
			name:  "JSON code block without tag",
			input: "```\n{\"test\": true}\n```",
			want:  `{"test": true}`,
		},
		{
			name:  "No code block",
			input: `{"test": true}`,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractFromMarkdown(tt.input)
			if got != tt.want {
				t.Errorf("extractFromMarkdown() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractBalanced(t *testing.T) {
	tests := []struct {
		name  string
		input string
		open  rune
		close rune
		want  string
	}{
		{
			name:  "Simple object",
			input: `{"a": 1}`,
			open:  '{',
			close: '}',
			want:  `{"a": 1}`,
		},
		{
			name:  "Nested objects",
			input: `{"a": {"b": 2}}`,
			open:  '{',
			close: '}',
			want:  `{"a": {"b": 2}}`,
		},
		{
			name:  "Object with string containing braces",
			input: `{"text": "Hello {world}"}`,
			open:  '{',
			close: '}',
			want:  `{"text": "Hello {world}"}`,
		},
		{
			name:  "Array",
			input: `[1, 2, 3]`,
			open:  '[',
			close: ']',
			want:  `[1, 2, 3]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractBalanced(tt.input, tt.open, tt.close)
			if got != tt.want {
				t.Errorf("extractBalanced() = %v, want %v", got, tt.want)
			}
		})
	}
}
