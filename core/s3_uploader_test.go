package core

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockS3Client struct {
	Objects map[string][]byte
	Types   map[string]string
	Err     error
}

func (m *MockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	if m.Objects == nil {
		m.Objects = make(map[string][]byte)
		m.Types = make(map[string]string)
	}
	key := *params.Bucket + "/" + *params.Key
	m.Objects[key] = body
	if params.ContentType != nil {
		m.Types[key] = *params.ContentType
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Uploader_UploadFiles(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "report.xlsx")
	summary := filepath.Join(dir, "summary.yaml")
	require.NoError(t, os.WriteFile(report, []byte("xlsx"), 0644))
	require.NoError(t, os.WriteFile(summary, []byte("status: Success"), 0644))

	client := &MockS3Client{}
	u := &S3Uploader{Client: client, Bucket: "reports", Prefix: "/monthly/"}
	require.NoError(t, u.UploadFiles(context.Background(), report, summary))

	assert.Equal(t, []byte("xlsx"), client.Objects["reports/monthly/report.xlsx"])
	assert.Equal(t, xlsxContentType, client.Types["reports/monthly/report.xlsx"])
	assert.Equal(t, []byte("status: Success"), client.Objects["reports/monthly/summary.yaml"])
	assert.Empty(t, client.Types["reports/monthly/summary.yaml"])
}

func TestS3Uploader_Key(t *testing.T) {
	assert.Equal(t, "a.xlsx", (&S3Uploader{}).Key("/tmp/out/a.xlsx"))
	assert.Equal(t, "p/q/a.xlsx", (&S3Uploader{Prefix: "p\\q"}).Key("a.xlsx"))
}

func TestS3Uploader_Errors(t *testing.T) {
	u := &S3Uploader{Client: &MockS3Client{}, Bucket: "b"}
	assert.Error(t, u.UploadFile(context.Background(), filepath.Join(t.TempDir(), "missing"), "k"))

	path := filepath.Join(t.TempDir(), "x.xlsx")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	u.Client = &MockS3Client{Err: errors.New("denied")}
	err := u.UploadFiles(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}
