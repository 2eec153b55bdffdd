package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/retrocraftdevops/seitech/internal/logger"
	"github.com/retrocraftdevops/seitech/internal/types"
)

// Notifier is the sink for domain events consumed by the gamification and
// notification collaborators. Implementations must not block domain writes.
type Notifier interface {
	OnSkillLeveledUp(ctx context.Context, userID, skillID uuid.UUID, newLevel types.Level)
	OnPathCompleted(ctx context.Context, userID, pathID uuid.UUID)
	OnRecommendationActedOn(ctx context.Context, userID, courseID uuid.UUID, action types.RecommendationStatus)
}

type logNotifier struct {
	log *logger.Logger
}

// NewLogNotifier returns a Notifier that records events to the structured
// log. The production deployment swaps in the gamification bridge.
func NewLogNotifier(baseLog *logger.Logger) Notifier {
	return &logNotifier{log: baseLog.With("service", "LogNotifier")}
}

func (n *logNotifier) OnSkillLeveledUp(ctx context.Context, userID, skillID uuid.UUID, newLevel types.Level) {
	n.log.Info("Skill leveled up", "user_id", userID, "skill_id", skillID, "new_level", newLevel)
}

func (n *logNotifier) OnPathCompleted(ctx context.Context, userID, pathID uuid.UUID) {
	n.log.Info("Learning path completed", "user_id", userID, "path_id", pathID)
}

func (n *logNotifier) OnRecommendationActedOn(ctx context.Context, userID, courseID uuid.UUID, action types.RecommendationStatus) {
	n.log.Info("Recommendation acted on", "user_id", userID, "course_id", courseID, "action", action)
}
