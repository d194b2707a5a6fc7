package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/models"
)

func newSubmissionServiceForTest(env *testEnv, uploader FileUploader) *submissionService {
	return NewSubmissionService(env.submissions, env.tasks, env.courses, testValidator(), uploader, 5, testLogger()).(*submissionService)
}

func TestSubmissionCreateStoresPDF(t *testing.T) {
	env := newTestEnv(t, 2, 0, 1)
	uploader := newMemoryUploader()
	svc := newSubmissionServiceForTest(env, uploader)

	created, err := svc.Create(context.Background(), env.studentActor(0), dto.SubmissionCreateRequest{TaskID: env.task.ID}, multipartFile(t, "essay.pdf", samplePDF))
	require.NoError(t, err)
	require.Equal(t, env.task.ID, created.TaskID)
	require.Contains(t, created.FileURL, "https://files.test/tasks/")
	require.NotNil(t, created.Student)
	require.Equal(t, env.students[0].ID, created.Student.ID)
	require.Equal(t, 1, uploader.count())

	has, err := svc.HasSubmitted(context.Background(), env.task.ID, env.studentActor(0))
	require.NoError(t, err)
	require.True(t, has.HasSubmitted)

	has, err = svc.HasSubmitted(context.Background(), env.task.ID, env.studentActor(1))
	require.NoError(t, err)
	require.False(t, has.HasSubmitted)
}

func TestSubmissionCreateRejectsSecondSubmission(t *testing.T) {
	env := newTestEnv(t, 1, 1, 1)
	uploader := newMemoryUploader()
	svc := newSubmissionServiceForTest(env, uploader)

	_, err := svc.Create(context.Background(), env.studentActor(0), dto.SubmissionCreateRequest{TaskID: env.task.ID}, multipartFile(t, "again.pdf", samplePDF))
	require.ErrorIs(t, err, ErrAlreadySubmitted)
	require.Zero(t, uploader.count())
}

func TestSubmissionCreateRejectsNonPDF(t *testing.T) {
	env := newTestEnv(t, 1, 0, 1)
	svc := newSubmissionServiceForTest(env, newMemoryUploader())

	_, err := svc.Create(context.Background(), env.studentActor(0), dto.SubmissionCreateRequest{TaskID: env.task.ID}, multipartFile(t, "notes.pdf", []byte("plain text pretending to be a pdf")))
	require.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestSubmissionCreateGatedByLifecycle(t *testing.T) {
	t.Run("grading started", func(t *testing.T) {
		env := newTestEnv(t, 1, 0, 1)
		env.setStatus(t, models.GradingStatusStarted)
		svc := newSubmissionServiceForTest(env, newMemoryUploader())

		_, err := svc.Create(context.Background(), env.studentActor(0), dto.SubmissionCreateRequest{TaskID: env.task.ID}, multipartFile(t, "late.pdf", samplePDF))
		require.ErrorIs(t, err, ErrSubmissionWindowClosed)
	})

	t.Run("deadline passed while standby", func(t *testing.T) {
		env := newTestEnv(t, 1, 0, 1)
		svc := newSubmissionServiceForTest(env, newMemoryUploader())
		svc.now = func() time.Time { return env.task.Deadline.Add(time.Minute) }

		_, err := svc.Create(context.Background(), env.studentActor(0), dto.SubmissionCreateRequest{TaskID: env.task.ID}, multipartFile(t, "late.pdf", samplePDF))
		require.ErrorIs(t, err, ErrSubmissionWindowClosed)
	})
}

func TestSubmissionCreateRequiresEnrolledStudent(t *testing.T) {
	env := newTestEnv(t, 1, 0, 1)
	svc := newSubmissionServiceForTest(env, newMemoryUploader())
	ctx := context.Background()

	_, err := svc.Create(ctx, env.teacherActor(), dto.SubmissionCreateRequest{TaskID: env.task.ID}, multipartFile(t, "t.pdf", samplePDF))
	require.ErrorIs(t, err, ErrPermissionDenied)

	outsider := models.User{Username: "outsider", Role: models.RoleStudent}
	require.NoError(t, env.db.Create(&outsider).Error)
	_, err = svc.Create(ctx, Actor{ID: outsider.ID, Role: models.RoleStudent}, dto.SubmissionCreateRequest{TaskID: env.task.ID}, multipartFile(t, "o.pdf", samplePDF))
	require.ErrorIs(t, err, ErrNotEnrolled)

	_, err = svc.Create(ctx, env.studentActor(0), dto.SubmissionCreateRequest{TaskID: env.task.ID}, nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, env.studentActor(0), dto.SubmissionCreateRequest{TaskID: 404}, multipartFile(t, "x.pdf", samplePDF))
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestSubmissionQueriesRespectOwnership(t *testing.T) {
	env := newTestEnv(t, 2, 2, 1)
	svc := newSubmissionServiceForTest(env, newMemoryUploader())
	ctx := context.Background()

	own, err := svc.Get(ctx, env.submitted[0].ID, env.studentActor(0))
	require.NoError(t, err)
	require.Equal(t, env.submitted[0].ID, own.ID)

	_, err = svc.Get(ctx, env.submitted[0].ID, env.studentActor(1))
	require.ErrorIs(t, err, ErrPermissionDenied)

	all, err := svc.ListForTask(ctx, env.task.ID, env.teacherActor())
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = svc.ListForTask(ctx, env.task.ID, env.studentActor(0))
	require.ErrorIs(t, err, ErrPermissionDenied)

	mine, err := svc.ListMine(ctx, env.studentActor(1))
	require.NoError(t, err)
	require.Len(t, mine, 1)

	fetched, err := svc.GetOwn(ctx, env.task.ID, env.studentActor(1))
	require.NoError(t, err)
	require.Equal(t, env.submitted[1].ID, fetched.ID)

	_, err = svc.GetOwn(ctx, env.task.ID, env.teacherActor())
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}
