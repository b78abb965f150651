package cache

import "fmt"

func ResponseKey(queryHash string) string {
	return fmt.Sprintf("resp:entry:%s", queryHash)
}

func ResponseHitsKey(queryHash string) string {
	return fmt.Sprintf("resp:hits:%s", queryHash)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}

func MetricsRateKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:metrics:%s", keyPrefix)
}
