package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AttemptSnapshotKey returns the cache key for a device's recovery snapshot
// of one exam attempt. At most one snapshot exists per (namespace, exam).
func (r *CacheKeyStruct) AttemptSnapshotKey(namespace, examID string) string {
	return fmt.Sprintf("device:%s:exam:%s:snapshot", namespace, examID)
}

// ExamDefinitionKey returns the cache key for a fetched exam definition.
func (r *CacheKeyStruct) ExamDefinitionKey(examID string) string {
	return fmt.Sprintf("exam:%s:definition", examID)
}

// AttemptResultKey returns the cache key for a finished attempt's result id.
func (r *CacheKeyStruct) AttemptResultKey(namespace, examID string) string {
	return fmt.Sprintf("device:%s:exam:%s:result", namespace, examID)
}

var CacheKey = NewCacheKeyStruct()
