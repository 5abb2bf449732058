package cache

import (
	"fmt"
)

// ResultKind names one cached analyzer document.
type ResultKind string

const (
	ResultStatistics ResultKind = "stats"
	ResultRallies    ResultKind = "rallies"
)

func ResultKey(videoID string, kind ResultKind) string {
	return fmt.Sprintf("result:%s:%s", kind, videoID)
}

func RateLimitKey(clientKey string) string {
	return fmt.Sprintf("ratelimit:%s", clientKey)
}
