package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/repository"
)

type memoryActivityRepo struct {
	entries []models.ActivityLog
}

func (m *memoryActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	return append([]models.ActivityLog(nil), m.entries...), int64(len(m.entries)), nil
}

func TestActivityServiceRecordMasksSensitiveKeys(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, nil, testValidator(), testLogger())

	entry, err := svc.Record(context.Background(), ActivityEntry{
		ActorID:    1,
		ActorRole:  "Teacher",
		Action:     "Grading.Transitioned",
		EntityType: "task",
		EntityID:   ptrUint(5),
		Metadata: map[string]interface{}{
			"email":      "teacher@example.com",
			"seed_token": "abc",
			"to":         "FINISHED",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "***", entry.Metadata["email"])
	require.Equal(t, "***", entry.Metadata["seed_token"])
	require.Equal(t, "FINISHED", entry.Metadata["to"])
	require.Equal(t, "grading.transitioned", entry.Action)
	require.Equal(t, "teacher", entry.ActorRole)
}

func TestActivityServiceRecordRequiresAction(t *testing.T) {
	svc := NewActivityService(&memoryActivityRepo{}, nil, testValidator(), testLogger())
	_, err := svc.Record(context.Background(), ActivityEntry{EntityType: "task"})
	require.Error(t, err)
}

func TestActivityServiceListForTaskIsOwnerOnly(t *testing.T) {
	env := newTestEnv(t, 1, 0, 1)
	svc := NewActivityService(env.activity, env.tasks, testValidator(), testLogger())
	ctx := context.Background()

	recordTaskActivity(ctx, svc, testLogger(), env.teacherActor(), "task.updated", env.task.ID, nil)

	trail, err := svc.ListForTask(ctx, env.teacherActor(), dto.ActivityListRequest{TaskID: env.task.ID, Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, trail.Items, 1)
	require.Equal(t, 1, trail.Pagination.TotalPages)

	_, err = svc.ListForTask(ctx, env.studentActor(0), dto.ActivityListRequest{TaskID: env.task.ID})
	require.ErrorIs(t, err, ErrPermissionDenied)
}
