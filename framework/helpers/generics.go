package helpers

import (
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// CopyOf returns a shallow copy of a slice.
func CopyOf[V any](slice []V) []V {
	return append([]V(nil), slice...)
}

// IfElse returns valueIfTrue or valueIfFalse depending on isTrue.
func IfElse[V any](isTrue bool, valueIfTrue, valueIfFalse V) V {
	if isTrue {
		return valueIfTrue
	}
	return valueIfFalse
}

// Sorted returns a sorted copy of a slice, leaving the original unmodified.
func Sorted[V constraints.Ordered](slice []V) []V {
	ret := CopyOf(slice)
	slices.Sort(ret)
	return ret
}
