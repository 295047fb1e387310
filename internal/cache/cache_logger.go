package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateAssessmentCache drops all cached views of one assessment
func InvalidateAssessmentCache(ctx context.Context, cm *CacheManager, assessmentID uint, creatorID string) {
	SafeDelete(ctx, cm.Assessment,
		fmt.Sprintf("id:%d", assessmentID),
		fmt.Sprintf("details:%d", assessmentID))

	SafeInvalidatePattern(ctx, cm.Assessment, fmt.Sprintf("creator:%s:*", creatorID))
	SafeInvalidatePattern(ctx, cm.Assessment, "list:*")
	SafeInvalidatePattern(ctx, cm.Analytics, "*")
}

// InvalidateProgressCache drops cached ledger reads after an upsert
func InvalidateProgressCache(ctx context.Context, cm *CacheManager, studentID string, assessmentID uint) {
	SafeDelete(ctx, cm.Progress,
		fmt.Sprintf("pair:%s:%d", studentID, assessmentID))
	SafeInvalidatePattern(ctx, cm.Progress, fmt.Sprintf("student:%s:*", studentID))
	SafeInvalidatePattern(ctx, cm.Analytics, "*")
}

// InvalidateResourceCache drops cached views of one resource
func InvalidateResourceCache(ctx context.Context, cm *CacheManager, resourceID uint) {
	SafeDelete(ctx, cm.Resource, fmt.Sprintf("id:%d", resourceID))
	SafeInvalidatePattern(ctx, cm.Resource, "list:*")
}
