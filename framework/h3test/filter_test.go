package h3test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexFiltersMatch(t *testing.T) {
	type filterCase struct {
		run  []string
		skip []string
		id   TestID
		want bool
	}
	cases := []filterCase{
		// no filters: everything runs
		{nil, nil, TestID(nil), true},
		{nil, nil, TestID{"push"}, true},
		{nil, nil, TestID{"push", "case 39"}, true},

		// single-component --run
		{[]string{"push"}, nil, TestID(nil), true},
		{[]string{"push"}, nil, TestID{"push"}, true},
		{[]string{"push"}, nil, TestID{"goaway"}, false},
		{[]string{"push"}, nil, TestID{"x-push-x"}, true},
		{[]string{"push"}, nil, TestID{"push", "case 39"}, true},

		// multi-component --run still lets parent scopes through
		{[]string{"push/39"}, nil, TestID(nil), true},
		{[]string{"push/39"}, nil, TestID{"push"}, true},
		{[]string{"push/39"}, nil, TestID{"goaway"}, false},
		{[]string{"push/39"}, nil, TestID{"push", "39"}, true},
		{[]string{"push/39"}, nil, TestID{"a push a", "x39x"}, true},

		// several --run patterns are ORed
		{[]string{"push", "goaway"}, nil, TestID(nil), true},
		{[]string{"push", "goaway"}, nil, TestID{"push"}, true},
		{[]string{"push", "goaway"}, nil, TestID{"goaway"}, true},
		{[]string{"push", "goaway"}, nil, TestID{"settings"}, false},
		{[]string{"push", "goaway"}, nil, TestID{"push", "other"}, true},
		{[]string{"push", "goaway"}, nil, TestID{"goaway", "other"}, true},

		// single-component --skip
		{nil, []string{"push"}, TestID(nil), true},
		{nil, []string{"push"}, TestID{"push"}, false},
		{nil, []string{"push"}, TestID{"goaway"}, true},
		{nil, []string{"push"}, TestID{"x-push-x"}, false},
		{nil, []string{"push"}, TestID{"push", "case 39"}, false},

		// multi-component --skip excludes only the named subtree
		{nil, []string{"push/39"}, TestID(nil), true},
		{nil, []string{"push/39"}, TestID{"push"}, true},
		{nil, []string{"push/39"}, TestID{"39"}, true},
		{nil, []string{"push/39"}, TestID{"push", "39"}, false},
		{nil, []string{"push/39"}, TestID{"push", "39", "extra"}, false},
		{nil, []string{"push/39"}, TestID{"push", "40"}, true},

		// several --skip patterns are ORed
		{nil, []string{"push", "goaway"}, TestID{"push"}, false},
		{nil, []string{"push", "goaway"}, TestID{"goaway"}, false},
		{nil, []string{"push", "goaway"}, TestID{"settings"}, true},
		{nil, []string{"push", "goaway"}, TestID{"settings", "push"}, true},

		// --skip wins over --run
		{[]string{"push"}, []string{"39"}, TestID{"push"}, true},
		{[]string{"push"}, []string{"39"}, TestID{"push 39"}, false},
	}
	for _, tc := range cases {
		var filters RegexFilters
		for _, s := range tc.run {
			require.NoError(t, filters.MustMatch.Set(s))
		}
		for _, s := range tc.skip {
			require.NoError(t, filters.MustNotMatch.Set(s))
		}
		t.Run(fmt.Sprintf("run=%s, skip=%s, id=%s", filters.MustMatch, filters.MustNotMatch, tc.id), func(t *testing.T) {
			assert.Equal(t, tc.want, filters.Match(tc.id))
		})
	}
}

func TestParseTestIDPattern(t *testing.T) {
	p, err := ParseTestIDPattern("settings/duplicate.*")
	require.NoError(t, err)
	assert.Len(t, p, 2)
	assert.True(t, p.Match(TestID{"settings", "duplicate ids"}, false))
	assert.False(t, p.Match(TestID{"settings", "missing"}, false))

	_, err = ParseTestIDPattern("settings/[bad")
	assert.Error(t, err)
}

func TestTestIDPatternListDescription(t *testing.T) {
	var l TestIDPatternList
	assert.False(t, l.IsDefined())
	assert.Equal(t, "", l.String())

	require.NoError(t, l.Set("push/.*"))
	require.NoError(t, l.Set("goaway"))
	assert.True(t, l.IsDefined())
	assert.Equal(t, `"push/.*" or "goaway"`, l.String())
}
