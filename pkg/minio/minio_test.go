package minio

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	require.Equal(t, "tasks/4/a.pdf", objectKey("tasks/4/a.pdf"))
	require.Equal(t, "tasks/4/a.pdf", objectKey("/tasks/4/a.pdf"))
	require.Equal(t, "a.pdf", objectKey("../../a.pdf"))
	require.Equal(t, "tasks/a.pdf", objectKey(`tasks\a.pdf`))
}

func TestContentType(t *testing.T) {
	require.Equal(t, "application/pdf", contentType("tasks/4/a.PDF"))
	require.Equal(t, "application/octet-stream", contentType("tasks/4/a.bin"))
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{Endpoint: "localhost:9000"}, zerolog.Nop())
	require.Error(t, err)

	_, err = New(Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}, zerolog.Nop())
	require.Error(t, err)

	svc, err := New(Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "submissions"}, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, "http://localhost:9000/submissions/tasks/1/x.pdf", svc.objectURL("tasks/1/x.pdf"))
}
