package services

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
)

// activityRecorder appends audit entries. A failed write is logged and never
// fails the privileged action that produced it.
type activityRecorder struct {
	repo repository.ActivityRepository
	log  *zap.Logger
}

func (r activityRecorder) record(ctx context.Context, actor models.Actor, target *uint64, action, ip string, meta map[string]any) {
	if r.repo == nil {
		return
	}

	entry := &models.ActivityLog{
		ActingUserID: actor.ID,
		TargetUserID: target,
		Action:       action,
		IP:           ip,
	}
	if meta != nil {
		raw, err := json.Marshal(meta)
		if err != nil {
			r.log.Warn("failed to encode activity meta", zap.String("action", action), zap.Error(err))
		} else {
			entry.Meta = datatypes.JSON(raw)
		}
	}

	if err := r.repo.Create(ctx, entry); err != nil {
		r.log.Warn("failed to record activity",
			zap.Uint64("acting_user_id", actor.ID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
