package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/peergrade-api/internal/models"
)

func TestPeerAssignmentRequestIsIdempotent(t *testing.T) {
	env := newTestEnv(t, 5, 5, 2)
	svc := env.assignmentService()
	ctx := context.Background()

	first, err := svc.Request(ctx, env.task.ID, env.studentActor(0))
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.EqualValues(t, 2, env.assignmentCount(t))

	second, err := svc.Request(ctx, env.task.ID, env.studentActor(0))
	require.NoError(t, err)
	require.Equal(t, submissionIDs(first), submissionIDs(second))
	require.EqualValues(t, 2, env.assignmentCount(t))
}

func TestPeerAssignmentNeverAssignsOwnSubmission(t *testing.T) {
	env := newTestEnv(t, 4, 4, 3)
	svc := env.assignmentService()

	for i := range env.students {
		workload, err := svc.Request(context.Background(), env.task.ID, env.studentActor(i))
		require.NoError(t, err)
		require.Len(t, workload, 3)
		for _, submission := range workload {
			require.NotEqual(t, env.submitted[i].ID, submission.ID)
			require.Nil(t, submission.Student, "peer reviews are blind")
		}
	}

	var selfReviews int64
	require.NoError(t, env.db.Model(&models.SubmissionGrade{}).
		Joins("JOIN submissions ON submissions.id = submission_grades.submission_id").
		Where("submissions.student_id = submission_grades.grader_id").
		Count(&selfReviews).Error)
	require.Zero(t, selfReviews)
}

func TestPeerAssignmentCoverageBound(t *testing.T) {
	t.Run("pool smaller than N", func(t *testing.T) {
		env := newTestEnv(t, 3, 3, 4)
		workload, err := env.assignmentService().Request(context.Background(), env.task.ID, env.studentActor(0))
		require.NoError(t, err)
		require.Len(t, workload, 2)
	})

	t.Run("grader without submission", func(t *testing.T) {
		env := newTestEnv(t, 4, 3, 5)
		workload, err := env.assignmentService().Request(context.Background(), env.task.ID, env.studentActor(3))
		require.NoError(t, err)
		require.Len(t, workload, 3)
	})

	t.Run("pool larger than N", func(t *testing.T) {
		env := newTestEnv(t, 6, 6, 2)
		workload, err := env.assignmentService().Request(context.Background(), env.task.ID, env.studentActor(0))
		require.NoError(t, err)
		require.Len(t, workload, 2)
	})
}

func TestPeerAssignmentBalancesLoad(t *testing.T) {
	env := newTestEnv(t, 5, 5, 2)
	svc := env.assignmentService()
	ctx := context.Background()

	// grader 5 takes the two least reviewed with the lowest ids: submissions 1 and 2.
	first, err := svc.Request(ctx, env.task.ID, env.studentActor(4))
	require.NoError(t, err)
	require.Equal(t, []uint{env.submitted[0].ID, env.submitted[1].ID}, submissionIDs(first))

	// grader 4 must now prefer the unreviewed submission 3 over 1 and 2.
	second, err := svc.Request(ctx, env.task.ID, env.studentActor(3))
	require.NoError(t, err)
	require.Contains(t, submissionIDs(second), env.submitted[2].ID)
	require.NotContains(t, submissionIDs(second), env.submitted[3].ID)

	// submission 4 is the only one still unreviewed for grader 1.
	third, err := svc.Request(ctx, env.task.ID, env.studentActor(0))
	require.NoError(t, err)
	require.Contains(t, submissionIDs(third), env.submitted[3].ID)
}

func TestPeerAssignmentRejectsOutsiders(t *testing.T) {
	env := newTestEnv(t, 2, 2, 1)
	svc := env.assignmentService()
	ctx := context.Background()

	_, err := svc.Request(ctx, env.task.ID, env.teacherActor())
	require.ErrorIs(t, err, ErrPermissionDenied)

	outsider := models.User{Username: "outsider", Role: models.RoleStudent}
	require.NoError(t, env.db.Create(&outsider).Error)
	_, err = svc.Request(ctx, env.task.ID, Actor{ID: outsider.ID, Role: models.RoleStudent})
	require.ErrorIs(t, err, ErrNotEnrolled)

	_, err = svc.Request(ctx, 9999, env.studentActor(0))
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestPeerAssignmentClosedAfterFinish(t *testing.T) {
	env := newTestEnv(t, 3, 3, 1)
	svc := env.assignmentService()
	ctx := context.Background()

	existing, err := svc.Request(ctx, env.task.ID, env.studentActor(0))
	require.NoError(t, err)
	require.Len(t, existing, 1)

	env.setStatus(t, models.GradingStatusFinished)

	_, err = svc.Request(ctx, env.task.ID, env.studentActor(1))
	require.ErrorIs(t, err, ErrGradingClosed)

	again, err := svc.Request(ctx, env.task.ID, env.studentActor(0))
	require.NoError(t, err)
	require.Equal(t, submissionIDs(existing), submissionIDs(again))
}

func TestPeerAssignmentAllowedWhileStarted(t *testing.T) {
	env := newTestEnv(t, 3, 3, 2)
	env.setStatus(t, models.GradingStatusStarted)

	workload, err := env.assignmentService().Request(context.Background(), env.task.ID, env.studentActor(1))
	require.NoError(t, err)
	require.Len(t, workload, 2)
}
