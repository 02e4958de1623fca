package config

import "fmt"

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key holding a user's active session JTI.
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("session:%d", userID)
}

// UserPermissionsKey returns the cache key holding a user's effective
// permission set as a JSON array.
func (r *CacheKeyStruct) UserPermissionsKey(userID int) string {
	return fmt.Sprintf("user:%d:permissions", userID)
}

// AccessEventsQueue is the Redis list drained by the audit worker.
func (r *CacheKeyStruct) AccessEventsQueue() string {
	return "access_events_queue"
}

// AccessEventsChannel is the Pub/Sub channel for live admin event fan-out.
func (r *CacheKeyStruct) AccessEventsChannel() string {
	return "events:access"
}

var CacheKey = NewCacheKeyStruct()
