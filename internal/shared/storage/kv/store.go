// Package kv defines the record store used to persist resume records as
// string values under string keys.
package kv

import (
	"context"
	"errors"
	"sort"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("record store closed")

// Item is one key/value pair returned by List. Value is empty unless values were requested.
type Item struct {
	Key   string
	Value string
}

// Store is a string key/value record store.
type Store interface {
	// Get returns the value for key; found is false when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	// List returns items whose key matches a glob pattern ('*' and '?'), sorted by key.
	List(ctx context.Context, pattern string, includeValues bool) ([]Item, error)
	// Del removes key and reports whether it existed.
	Del(ctx context.Context, key string) (bool, error)
	// Flush removes every key owned by the store.
	Flush(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Match reports whether key matches pattern, where '*' matches any run of
// characters and '?' matches exactly one. Unlike path.Match, '/' is not special.
func Match(pattern, key string) bool {
	p := []rune(pattern)
	k := []rune(key)
	pi, ki := 0, 0
	star, mark := -1, 0
	for ki < len(k) {
		switch {
		case pi < len(p) && (p[pi] == '?' || p[pi] == k[ki]):
			pi++
			ki++
		case pi < len(p) && p[pi] == '*':
			star = pi
			mark = ki
			pi++
		case star >= 0:
			pi = star + 1
			mark++
			ki = mark
		default:
			return false
		}
	}
	for pi < len(p) && p[pi] == '*' {
		pi++
	}
	return pi == len(p)
}

// SortItems orders items by key.
func SortItems(items []Item) {
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
}
