package slug

import (
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cases = []struct {
	in   string
	want string
}{
	{"", ""},
	{"C++", "cpp"},
	{"Debuggers", "debuggers"},
	{"Deducing This (C++23)", "deducing-this-cpp-23"},
	{"C++20 Ranges vs C++17", "cpp-20-ranges-vs-c-17"},
	{"How Debuggers Work: Part 1", "how-debuggers-work-part-1"},
	{"Trip Report: CppCon 2019", "trip-report-cpp-con-2019"},
	{"fooBar", "foo-bar"},
	{"XMLHttpRequest", "xml-http-request"},
	{"don't panic", "dont-panic"},
	{"Don’t Panic", "dont-panic"},
	{"  --leading and trailing--  ", "leading-and-trailing"},
	{"Café résumé", "cafe-resume"},
	{"Straße", "strasse"},
	{"already-a-slug", "already-a-slug"},
	{"snake_case_tag", "snake-case-tag"},
	{"!!!", ""},
	{"c++", "c"},
	{"Straße in München", "strasse-in-munchen"},
	{"C++ & Go @ GitHub", "cpp-go-git-hub"},
}

func TestMake(t *testing.T) {
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Make(tc.in))
		})
	}
}

func TestMake_Idempotent(t *testing.T) {
	for _, tc := range cases {
		once := Make(tc.in)
		assert.Equal(t, once, Make(once), "input %q", tc.in)
	}
}

func TestMake_NoUppercaseOrStrayHyphens(t *testing.T) {
	for _, tc := range cases {
		got := Make(tc.in)
		for _, r := range got {
			require.False(t, unicode.IsUpper(r), "slug %q of %q has upper-case rune", got, tc.in)
		}
		assert.NotContains(t, got, "--")
		if got != "" {
			assert.NotEqual(t, '-', rune(got[0]))
			assert.NotEqual(t, '-', rune(got[len(got)-1]))
		}
	}
}

func TestMake_OnlyFirstCppIsRewritten(t *testing.T) {
	got := Make("C++ and C++")
	assert.Equal(t, "cpp-and-c", got)
	assert.Equal(t, got, Make(got))
}

func TestMakeAll(t *testing.T) {
	assert.Equal(t, []string{"cpp", "debuggers"}, MakeAll([]string{"C++", "Debuggers"}))
	assert.Equal(t, []string{"b", "a", "b"}, MakeAll([]string{"B", "a", "B"}))

	got := MakeAll(nil)
	require.NotNil(t, got)
	assert.Empty(t, got)
}
