package h3test

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTestScopeInheritsConfiguration(t *testing.T) {
	contextValue := "shared probe context"
	config := TestConfiguration{
		Context: contextValue,
	}
	_ = Run(config, func(ht *T) {
		assert.Equal(t, contextValue, ht.Context())

		ht.Run("nested scope", func(ht1 *T) {
			assert.Equal(t, contextValue, ht1.Context())
		})
	})
}

func TestTestScopeExitsImmediatelyOnFailNow(t *testing.T) {
	var trace []string
	_ = Run(TestConfiguration{}, func(ht *T) {
		ht.Run("", func(ht *T) {
			trace = append(trace, "before FailNow")
			ht.FailNow()
			trace = append(trace, "after FailNow")
		})
		trace = append(trace, "after subtest")
	})
	assert.Equal(t, []string{"before FailNow", "after subtest"}, trace)
}

func TestTestScopeExitsImmediatelyOnSkip(t *testing.T) {
	var trace []string
	_ = Run(TestConfiguration{}, func(ht *T) {
		ht.Run("", func(ht *T) {
			trace = append(trace, "before Skip")
			ht.Skip()
			trace = append(trace, "after Skip")
		})
		trace = append(trace, "after subtest")
	})
	assert.Equal(t, []string{"before Skip", "after subtest"}, trace)
}

func TestTestScopePassedResult(t *testing.T) {
	result := Run(TestConfiguration{}, func(ht *T) {
		ht.Run("goaway", func(ht0 *T) {
			ht0.Run("while idle", func(ht1 *T) {
				// passes
			})
			ht0.Run("mid-request", func(ht2 *T) {
				// passes
			})
		})
	})

	assert.True(t, result.OK())
	assert.Len(t, result.Tests, 4)
	assert.Len(t, result.Failures, 0)

	// child scopes report before their parent, with the root scope last
	assert.Equal(t, TestID{"goaway", "while idle"}, result.Tests[0].TestID)
	assert.Len(t, result.Tests[0].Errors, 0)

	assert.Equal(t, TestID{"goaway", "mid-request"}, result.Tests[1].TestID)
	assert.Len(t, result.Tests[1].Errors, 0)

	assert.Equal(t, TestID{"goaway"}, result.Tests[2].TestID)
	assert.Len(t, result.Tests[2].Errors, 0)

	assert.Nil(t, result.Tests[3].TestID)
	assert.Len(t, result.Tests[3].Errors, 0)
}

func TestTestScopeFailedResult(t *testing.T) {
	result := Run(TestConfiguration{}, func(ht *T) {
		ht.Run("goaway", func(ht0 *T) {
			ht0.Run("while idle", func(ht1 *T) {
				// passes
			})
			ht0.Run("mid-request", func(ht2 *T) {
				ht2.Errorf("expected %s termination", "H3_NO_ERROR")
				ht2.Errorf("stream stayed open")
			})
			ht0.Errorf("connection still active")
		})
	})

	assert.False(t, result.OK())
	assert.Len(t, result.Tests, 4)
	assert.Len(t, result.Failures, 2)

	assert.Equal(t, TestID{"goaway", "while idle"}, result.Tests[0].TestID)
	assert.Len(t, result.Tests[0].Errors, 0)

	assert.Equal(t, TestID{"goaway", "mid-request"}, result.Tests[1].TestID)
	assert.Len(t, result.Tests[1].Errors, 2)
	assert.Equal(t, "expected H3_NO_ERROR termination", result.Tests[1].Errors[0].Error())
	assert.Equal(t, "stream stayed open", result.Tests[1].Errors[1].Error())

	assert.Equal(t, TestID{"goaway"}, result.Tests[2].TestID)
	assert.Len(t, result.Tests[2].Errors, 1)
	assert.Equal(t, "connection still active", result.Tests[2].Errors[0].Error())

	assert.Nil(t, result.Tests[3].TestID)
	assert.Len(t, result.Tests[3].Errors, 0)
}

func TestTestScopeNonCriticalResult(t *testing.T) {
	result := Run(TestConfiguration{}, func(ht *T) {
		ht.Run("parent", func(ht0 *T) {
			ht0.Run("tolerated", func(ht1 *T) {
				ht1.NonCritical("target does not support push")
				ht1.Errorf("no push stream seen")
			})
			ht0.Run("fatal", func(ht2 *T) {
				ht2.Errorf("definitely wrong")
			})
		})
	})

	assert.False(t, result.OK())
	assert.Len(t, result.Failures, 1)
	assert.Equal(t, TestID{"parent", "fatal"}, result.Failures[0].TestID)

	assert.Len(t, result.NonCriticalFailures, 1)
	nc := result.NonCriticalFailures[0]
	assert.Equal(t, TestID{"parent", "tolerated"}, nc.TestID)
	assert.True(t, nc.NonCritical)
	assert.Equal(t, "target does not support push", nc.Explanation)
}

func TestTestScopeSkippedResult(t *testing.T) {
	result := Run(TestConfiguration{}, func(ht *T) {
		ht.Run("settings", func(ht0 *T) {
			ht0.Run("while idle", func(ht1 *T) {
				ht1.Skip()
			})
			ht0.Run("mid-request", func(ht2 *T) {
				ht2.SkipWithReason("requires 0-RTT")
			})
		})
	})

	// skipped scopes leave no result entries at all
	assert.True(t, result.OK())
	assert.Len(t, result.Tests, 2)
	assert.Len(t, result.Failures, 0)

	assert.Equal(t, TestID{"settings"}, result.Tests[0].TestID)
	assert.Len(t, result.Tests[0].Errors, 0)

	assert.Nil(t, result.Tests[1].TestID)
	assert.Len(t, result.Tests[1].Errors, 0)
}

func TestTestScopeFilter(t *testing.T) {
	filter := func(id TestID) bool {
		return len(id) == 0 || id[0] == "settings"
	}

	result := Run(TestConfiguration{Filter: filter}, func(ht *T) {
		ht.Run("push", func(ht0 *T) {
			ht0.Run("reserved id", func(ht1 *T) {})
			ht0.Run("duplicate id", func(ht1 *T) {})
		})
		ht.Run("settings", func(ht0 *T) {
			ht0.Run("missing frame", func(ht1 *T) {})
			ht0.Run("duplicate frame", func(ht1 *T) {})
		})
	})

	assert.True(t, result.OK())
	assert.Len(t, result.Tests, 4)
	assert.Len(t, result.Failures, 0)

	assert.Equal(t, TestID{"settings", "missing frame"}, result.Tests[0].TestID)
	assert.Equal(t, TestID{"settings", "duplicate frame"}, result.Tests[1].TestID)
	assert.Equal(t, TestID{"settings"}, result.Tests[2].TestID)
	assert.Equal(t, TestID(nil), result.Tests[3].TestID)
}

func TestTestScopeDefer(t *testing.T) {
	var order []string
	_ = Run(TestConfiguration{}, func(ht *T) {
		ht.Run("cleanup order", func(ht0 *T) {
			ht0.Defer(func() { order = append(order, "first") })
			ht0.Defer(func() { order = append(order, "second") })
			order = append(order, "body")
		})
		ht.Run("cleanup runs on failure", func(ht0 *T) {
			ht0.Defer(func() { order = append(order, "after failure") })
			ht0.FailNow()
		})
	})
	assert.Equal(t, []string{"body", "second", "first", "after failure"}, order)
}
