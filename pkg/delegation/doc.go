// Package delegation manages time-boxed permission grants between
// members of the same organization. A delegation carries a verbatim
// permission list, a validity window and a terminal lifecycle: once
// revoked or expired it never becomes active again.
package delegation
