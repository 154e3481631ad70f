package redis

import "fmt"

// Key prefix for all scouting data
const defaultKeyPrefix = "scoutbook"

// recordKey returns the Redis key for a stored record
func recordKey(prefix, key string) string {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return fmt.Sprintf("%s:record:%s", prefix, key)
}
