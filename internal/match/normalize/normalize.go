// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

// Package normalize canonicalizes technology tokens and expands them through
// static synonym and family tables, enabling semantic skill matching.
//
// All functions are pure and operate over in-memory tables; there is no
// network or database access.
package normalize

import "strings"

// synonyms maps a canonical token to its alternative spellings. Lookup is
// bidirectional: a token matches the canonical form plus every listed
// synonym.
var synonyms = map[string][]string{
	"javascript": {"js", "ecmascript", "es6"},
	"typescript": {"ts"},
	"python":     {"py", "python3"},
	"golang":     {"go"},
	"kubernetes": {"k8s", "kube"},
	"postgresql": {"postgres", "psql", "pgsql"},
	"mongodb":    {"mongo"},
	"c++":        {"cpp", "cplusplus"},
	"c#":         {"csharp", "dotnet", ".net"},
	"ruby":       {"rb", "ruby-on-rails-lang"},
	"rust":       {"rustlang", "rust-lang"},
	"docker":     {"containers", "containerization"},
	"terraform":  {"tf", "hcl"},
	"graphql":    {"gql"},
	"machine-learning": {"ml", "deep-learning", "dl"},
	"artificial-intelligence": {"ai"},
	"continuous-integration":  {"ci", "ci-cd", "cicd"},
}

// families groups ecosystems whose members are close enough that knowing one
// implies transferable familiarity with the others.
var families = map[string][]string{
	"react":   {"react", "react-native", "nextjs", "next.js", "redux", "react-router"},
	"vue":     {"vue", "vuejs", "nuxt", "nuxtjs", "vuex", "pinia"},
	"angular": {"angular", "angularjs", "rxjs", "ngrx"},
	"node":    {"node", "nodejs", "express", "nestjs", "fastify", "koa"},
	"python-web": {"django", "flask", "fastapi", "pyramid"},
	"python-data": {"pandas", "numpy", "scipy", "scikit-learn", "jupyter"},
	"java":    {"java", "spring", "spring-boot", "maven", "gradle"},
	"golang":  {"golang", "gin", "echo", "fiber", "chi"},
	"ruby":    {"ruby", "rails", "ruby-on-rails", "sinatra"},
	"php":     {"php", "laravel", "symfony", "composer"},
	"css":     {"css", "sass", "scss", "less", "tailwind", "tailwindcss"},
	"testing": {"jest", "mocha", "pytest", "junit", "cypress", "selenium"},
	"cloud-aws": {"aws", "s3", "lambda", "ec2", "dynamodb", "cloudformation"},
}

// familyIndex maps each normalized member token to its family key.
// Built once at package load.
var familyIndex = buildFamilyIndex()

func buildFamilyIndex() map[string]string {
	idx := make(map[string]string)
	for key, members := range families {
		for _, m := range members {
			idx[Normalize(m)] = key
		}
	}
	return idx
}

// synonymIndex maps every normalized token (canonical or alternative) to its
// full synonym group, canonical form included.
var synonymIndex = buildSynonymIndex()

func buildSynonymIndex() map[string][]string {
	idx := make(map[string][]string)
	for canonical, alts := range synonyms {
		group := make([]string, 0, len(alts)+1)
		group = append(group, Normalize(canonical))
		for _, a := range alts {
			group = append(group, Normalize(a))
		}
		for _, token := range group {
			idx[token] = group
		}
	}
	return idx
}

// Normalize lower-cases, trims, and replaces spaces and underscores with
// hyphens, producing the canonical token form.
func Normalize(token string) string {
	t := strings.ToLower(strings.TrimSpace(token))
	t = strings.ReplaceAll(t, " ", "-")
	t = strings.ReplaceAll(t, "_", "-")
	return t
}

// Variants returns the normalized token plus all synonym-group entries and,
// when the token belongs to a technology family, all family members.
// The result always contains at least the normalized token itself.
func Variants(token string) map[string]struct{} {
	t := Normalize(token)
	out := map[string]struct{}{t: {}}

	if group, ok := synonymIndex[t]; ok {
		for _, v := range group {
			out[v] = struct{}{}
		}
	}

	if key, ok := familyIndex[t]; ok {
		for _, m := range families[key] {
			out[Normalize(m)] = struct{}{}
		}
	}

	return out
}

// SemanticallyEqual reports whether two tokens refer to the same or closely
// related technologies: their variant sets intersect, or one normalized
// token is a substring of the other (which handles compound names like
// "react-native" matching "react").
func SemanticallyEqual(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}

	va, vb := Variants(na), Variants(nb)
	for v := range va {
		if _, ok := vb[v]; ok {
			return true
		}
	}

	return strings.Contains(na, nb) || strings.Contains(nb, na)
}
