// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package normalize

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "Python", "python"},
		{"trims whitespace", "  go  ", "go"},
		{"spaces to hyphens", "machine learning", "machine-learning"},
		{"underscores to hyphens", "react_native", "react-native"},
		{"mixed", " Ruby_On Rails ", "ruby-on-rails"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestVariants(t *testing.T) {
	t.Run("synonym group members present", func(t *testing.T) {
		v := Variants("js")
		for _, want := range []string{"js", "javascript", "ecmascript"} {
			if _, ok := v[want]; !ok {
				t.Errorf("Variants(js) missing %q", want)
			}
		}
	})

	t.Run("family members present", func(t *testing.T) {
		v := Variants("react")
		for _, want := range []string{"react", "react-native", "nextjs", "redux"} {
			if _, ok := v[want]; !ok {
				t.Errorf("Variants(react) missing %q", want)
			}
		}
	})

	t.Run("unknown token maps to itself", func(t *testing.T) {
		v := Variants("cobol")
		if len(v) != 1 {
			t.Fatalf("Variants(cobol) = %v, want only the token itself", v)
		}
		if _, ok := v["cobol"]; !ok {
			t.Error("Variants(cobol) missing the token itself")
		}
	})
}

func TestSemanticallyEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", "python", "python", true},
		{"case insensitive", "Python", "python", true},
		{"synonym", "js", "javascript", true},
		{"synonym reversed", "javascript", "js", true},
		{"golang alias", "go", "golang", true},
		{"k8s alias", "k8s", "kubernetes", true},
		{"family members", "react-native", "nextjs", true},
		{"node family", "express", "nestjs", true},
		{"substring compound", "react", "react-router-dom", true},
		{"unrelated", "python", "rust", false},
		{"unrelated families", "react", "django", false},
		{"empty left", "", "python", false},
		{"empty both", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SemanticallyEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("SemanticallyEqual(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
