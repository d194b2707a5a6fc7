package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/peergrade-api/internal/models"
)

func TestResultServiceCachesAndInvalidates(t *testing.T) {
	env := newTestEnv(t, 3, 3, 1)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewResultService(env.tasks, env.courses, env.results, client, time.Minute, testLogger())

	empty, err := svc.List(ctx, env.task.ID, env.teacherActor())
	require.NoError(t, err)
	require.Empty(t, empty)
	require.True(t, mr.Exists(resultsCacheKey(env.task.ID)))

	for i, submission := range env.submitted {
		require.NoError(t, env.db.Create(&models.GradingResult{SubmissionID: submission.ID, TaskID: env.task.ID, TotalScore: i * 2}).Error)
	}

	cached, err := svc.List(ctx, env.task.ID, env.teacherActor())
	require.NoError(t, err)
	require.Empty(t, cached)

	svc.Invalidate(ctx, env.task.ID)
	require.False(t, mr.Exists(resultsCacheKey(env.task.ID)))

	fresh, err := svc.List(ctx, env.task.ID, env.teacherActor())
	require.NoError(t, err)
	require.Len(t, fresh, 3)
	require.Equal(t, 4, fresh[0].TotalScore)
	require.Equal(t, env.submitted[2].ID, fresh[0].Submission.ID)
}

func TestResultServiceRequiresMembership(t *testing.T) {
	env := newTestEnv(t, 1, 1, 1)
	svc := NewResultService(env.tasks, env.courses, env.results, nil, 0, testLogger())

	outsider := models.User{Username: "outsider", Role: models.RoleStudent}
	require.NoError(t, env.db.Create(&outsider).Error)

	_, err := svc.List(context.Background(), env.task.ID, Actor{ID: outsider.ID, Role: models.RoleStudent})
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = svc.List(context.Background(), 777, env.teacherActor())
	require.ErrorIs(t, err, ErrTaskNotFound)
}
