package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "drops license block and keeps helper comment",
			input: "/* COPYRIGHT 2024 */ /* helper: adds two ints */ int add(){}",
			want:  "/* helper: adds two ints */ int add(){}",
		},
		{
			name:  "multi-line license header",
			input: "/*\n * Licensed under the MIT License.\n * All rights reserved.\n */\nint main(void)\n{\n\treturn 0;\n}\n",
			want:  "int main(void) { return 0; }",
		},
		{
			name:  "marker match is case-insensitive",
			input: "/* do not copy this file */ int x;",
			want:  "int x;",
		},
		{
			name:  "academic integrity notice",
			input: "/* Academic Integrity: own work only */\nvoid f();",
			want:  "void f();",
		},
		{
			name:  "no comments collapses whitespace",
			input: "  int\tx =\r\n 1;  \n",
			want:  "int x = 1;",
		},
		{
			name:  "unterminated license comment runs to end",
			input: "int y;\n/* Copyright 2020\nint z;",
			want:  "int y;",
		},
		{
			name:  "unterminated plain comment kept",
			input: "int y; /* trailing note",
			want:  "int y; /* trailing note",
		},
		{
			name:  "first end marker closes the block",
			input: "/* outer /* license */ still code */ int a;",
			want:  "still code */ int a;",
		},
		{
			name:  "line comments are untouched",
			input: "// Copyright 2024\nint b;",
			want:  "// Copyright 2024 int b;",
		},
		{
			name:  "only a license header",
			input: "/* LICENSE: MIT */\n\n",
			want:  "",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_FalsePositiveOnDiscussion(t *testing.T) {
	// Comments that only talk about licenses are still removed.
	got := Normalize("/* detect a copyright notice in the header */ int detect();")
	assert.Equal(t, "int detect();", got)
}

func TestIsBoilerplate(t *testing.T) {
	assert.True(t, IsBoilerplate("/* (c) Copyright ACME */"))
	assert.True(t, IsBoilerplate("all Rights Reserved"))
	assert.False(t, IsBoilerplate("/* sorts the array in place */"))
	assert.False(t, IsBoilerplate(""))
}

func TestLeadingHeaderEnd(t *testing.T) {
	t.Run("license header at start", func(t *testing.T) {
		text := "  /* Copyright 2024 */\nint main() {}"
		assert.Equal(t, len("  /* Copyright 2024 */"), LeadingHeaderEnd(text))
	})

	t.Run("non-license header", func(t *testing.T) {
		assert.Equal(t, 0, LeadingHeaderEnd("/* matrix helpers */\nint m;"))
	})

	t.Run("comment not at start", func(t *testing.T) {
		assert.Equal(t, 0, LeadingHeaderEnd("int a; /* LICENSE */"))
	})

	t.Run("unterminated header runs to end", func(t *testing.T) {
		text := "/* LICENSE\nint a;"
		assert.Equal(t, len(text), LeadingHeaderEnd(text))
	})
}
