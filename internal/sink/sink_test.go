package sink_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guillem8cbii/basquet/internal/config"
	"github.com/guillem8cbii/basquet/internal/ics"
	"github.com/guillem8cbii/basquet/internal/sink"
)

var doc = ics.Document{Text: "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR\r\n", Events: 0}

func TestFileSink(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "cal.ics")
	s := sink.NewFile(path)
	assert.Equal(t, "file:"+path, s.Name())

	require.NoError(t, s.Push(context.Background(), doc))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc.Text, string(got), "CRLF line endings should be kept")

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644)&^umaskBits(t), fi.Mode().Perm())

	require.NoError(t, s.Push(context.Background(), ics.Document{Text: "short"}))
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "short", string(got), "Push should replace the previous file")
}

// umaskBits returns permission bits removed by the process umask, found by
// creating a scratch file.
func umaskBits(t *testing.T) os.FileMode {
	t.Helper()
	p := filepath.Join(t.TempDir(), "umask")
	require.NoError(t, os.WriteFile(p, nil, 0o777))
	fi, err := os.Stat(p)
	require.NoError(t, err)
	return 0o777 &^ fi.Mode().Perm()
}

func TestFileSinkDefaultPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "file:"+sink.DefaultPath, sink.NewFile("").Name())
}

func TestFileSinkCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := filepath.Join(t.TempDir(), "cal.ics")
	require.ErrorIs(t, sink.NewFile(path).Push(ctx, doc), context.Canceled)
	assert.NoFileExists(t, path)
}

// fake client implementing PutObjectAPI
type fakeS3 struct {
	in   *s3.PutObjectInput
	body string
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.in = in
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Sink(t *testing.T) {
	t.Parallel()

	fake := &fakeS3{}
	s, err := sink.NewS3(fake, config.S3Config{Bucket: "calendars", Key: "/teams/xirivella-partidos.ics"})
	require.NoError(t, err)
	assert.Equal(t, "s3://calendars/teams/xirivella-partidos.ics", s.Name())

	require.NoError(t, s.Push(context.Background(), doc))
	require.NotNil(t, fake.in)
	assert.Equal(t, "calendars", aws.ToString(fake.in.Bucket))
	assert.Equal(t, "teams/xirivella-partidos.ics", aws.ToString(fake.in.Key))
	assert.Equal(t, "text/calendar; charset=utf-8", aws.ToString(fake.in.ContentType))
	assert.Equal(t, `attachment; filename="xirivella-partidos.ics"`, aws.ToString(fake.in.ContentDisposition))
	assert.Equal(t, doc.Text, fake.body)
}

func TestS3SinkErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		cfg    config.S3Config
		putErr error

		wantBuildErr bool
	}{
		"Error on empty bucket": {cfg: config.S3Config{Key: "a.ics"}, wantBuildErr: true},
		"Error on empty key":    {cfg: config.S3Config{Bucket: "b", Key: "/"}, wantBuildErr: true},
		"Error from PutObject":  {cfg: config.S3Config{Bucket: "b", Key: "a.ics"}, putErr: errors.New("access denied")},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			fake := &fakeS3{err: tc.putErr}
			s, err := sink.NewS3(fake, tc.cfg)
			if tc.wantBuildErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			err = s.Push(context.Background(), doc)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.putErr)
		})
	}
}
