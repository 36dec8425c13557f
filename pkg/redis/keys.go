package redis

import "fmt"

// Key construction helpers

// RecommendationsKey returns the key for the cached recommendation list of a day
// Pattern: wellbeing:recommendations:{date}
func RecommendationsKey(date string) string {
	return fmt.Sprintf("wellbeing:recommendations:%s", date)
}

// LockKey returns the key guarding read-modify-write of a tracked entity
// Pattern: wellbeing:lock:{kind}:{id}
func LockKey(kind, id string) string {
	return fmt.Sprintf("wellbeing:lock:%s:%s", kind, id)
}
