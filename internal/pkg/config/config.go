// Package config exposes typed, read-only access to the service configuration.
package config

import (
	"io"
	"time"
)

// Config reads typed values by dotted key (for example "database.pool.max_conns").
//
// Missing keys yield the zero value of the requested type.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetFloat64(key string) float64

	// GetSecond, GetMinute, GetHour and GetDay interpret an integer value in
	// the named unit.
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration
	GetDay(key string) time.Duration

	// GetArray splits a comma separated value ("a,b,c"), dropping blanks.
	GetArray(key string) []string

	// OnChange registers fn to run after the backing source is reloaded.
	OnChange(fn func())
}
