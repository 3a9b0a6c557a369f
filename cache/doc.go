// Package cache provides in-process key value cache limited by total cost of entries.
//
// Every entry has cost (1 by default) and optional TTL. When new entry doesn't fit in
// the limit, expired entries are evicted first, then the least recently used ones.
// Expiration is lazy: expired entries are counted in Len and Cost until they are
// touched by Get, iteration or eviction. There are no background goroutines.
//
// Entries are kept in map for lookup and in doubly linked recency queue, so Get, Set
// and Delete are O(1), except expired entries sweep that is done only on eviction.
//
// Load provides read-through: on miss, value is materialized asynchronously, and its
// Future is cached immediately, so concurrent loads of same key share one
// materialization. Failed materialization is not cached.
package cache
