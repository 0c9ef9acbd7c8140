package utils

// Ptr returns a pointer to a copy of v. Optional report fields (row counts,
// for instance) are set this way.
func Ptr[T any](v T) *T {
	return &v
}
