package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

type testEnv struct {
	db          *gorm.DB
	tasks       repository.TaskRepository
	courses     repository.CourseRepository
	users       repository.UserRepository
	submissions repository.SubmissionRepository
	grades      repository.SubmissionGradeRepository
	results     repository.GradingResultRepository
	activity    repository.ActivityLogRepository

	teacher   models.User
	students  []models.User
	course    models.Course
	task      models.Task
	submitted []models.Submission
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// newTestEnv builds a course owned by one teacher with studentCount enrolled
// students. The first submitCount students have already submitted.
func newTestEnv(t *testing.T, studentCount, submitCount, submissionsNumber int) *testEnv {
	t.Helper()
	ctx := context.Background()
	db := setupTestDB(t)

	env := &testEnv{
		db:          db,
		tasks:       repository.NewTaskRepository(db),
		courses:     repository.NewCourseRepository(db),
		users:       repository.NewUserRepository(db),
		submissions: repository.NewSubmissionRepository(db),
		grades:      repository.NewSubmissionGradeRepository(db),
		results:     repository.NewGradingResultRepository(db),
		activity:    repository.NewActivityLogRepository(db),
	}

	env.teacher = models.User{Username: "teacher", Role: models.RoleTeacher}
	require.NoError(t, db.Create(&env.teacher).Error)

	env.course = models.Course{Name: "Peer Review 101", TeacherID: env.teacher.ID}
	require.NoError(t, env.courses.Create(ctx, &env.course))

	env.task = models.Task{
		CourseID: env.course.ID,
		Name:     "Essay",
		Deadline: time.Now().Add(24 * time.Hour),
		Grading:  models.Grading{Instructions: "rank the essays", SubmissionsNumber: submissionsNumber},
	}
	require.NoError(t, env.tasks.Create(ctx, &env.task))

	for i := 0; i < studentCount; i++ {
		student := models.User{Username: fmt.Sprintf("student-%d", i+1), Role: models.RoleStudent}
		require.NoError(t, db.Create(&student).Error)
		require.NoError(t, env.courses.Enroll(ctx, env.course.ID, student.ID))
		env.students = append(env.students, student)

		if i < submitCount {
			submission := models.Submission{TaskID: env.task.ID, StudentID: student.ID, FileURL: fmt.Sprintf("https://files.test/%d.pdf", i+1)}
			require.NoError(t, env.submissions.Create(ctx, &submission))
			env.submitted = append(env.submitted, submission)
		}
	}

	return env
}

func (e *testEnv) teacherActor() Actor {
	return Actor{ID: e.teacher.ID, Role: models.RoleTeacher}
}

func (e *testEnv) studentActor(i int) Actor {
	return Actor{ID: e.students[i].ID, Role: models.RoleStudent}
}

func (e *testEnv) setStatus(t *testing.T, status models.GradingStatus) {
	t.Helper()
	require.NoError(t, e.db.Model(&models.Grading{}).Where("task_id = ?", e.task.ID).Update("status", status).Error)
}

func (e *testEnv) assignmentCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&models.SubmissionGrade{}).Where("task_id = ?", e.task.ID).Count(&count).Error)
	return count
}

func (e *testEnv) assignmentService() PeerAssignmentService {
	return NewPeerAssignmentService(e.tasks, e.courses, e.submissions, e.grades, testLogger())
}

func (e *testEnv) gradeService() GradeService {
	return NewGradeService(e.tasks, e.submissions, e.grades, testValidator(), testLogger())
}

func (e *testEnv) lifecycleService(events GradingEventBus) GradingLifecycleService {
	aggregator := NewAggregator(e.submissions, e.results, testLogger())
	results := NewResultService(e.tasks, e.courses, e.results, nil, time.Minute, testLogger())
	activity := NewActivityService(e.activity, e.tasks, testValidator(), testLogger())
	return NewGradingLifecycleService(e.tasks, aggregator, results, events, activity, testLogger())
}

type memoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryUploader() *memoryUploader {
	return &memoryUploader{objects: make(map[string][]byte)}
}

func (m *memoryUploader) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = data
	return "https://files.test/" + name, nil
}

func (m *memoryUploader) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func multipartFile(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func submissionIDs(responses []dto.SubmissionResponse) []uint {
	ids := make([]uint, 0, len(responses))
	for _, response := range responses {
		ids = append(ids, response.ID)
	}
	return ids
}

func ptrUint(v uint) *uint {
	return &v
}
