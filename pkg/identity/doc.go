// Package identity manages principals: the platform-level accounts
// that hold a platform role and a freeze state. Freezing a principal
// suspends every capability it would otherwise hold, including
// administrative ones, until an unfreeze is recorded.
package identity
