package iopkg

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	getBody       []byte
	getErr        error
	putLastBucket string
	putLastKey    string
	putLastBody   []byte
	putErr        error
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	cl := int64(len(f.getBody))
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.getBody)), ContentLength: &cl}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.putLastBucket = aws.ToString(in.Bucket)
	f.putLastKey = aws.ToString(in.Key)
	if in.Body != nil {
		f.putLastBody, _ = io.ReadAll(in.Body)
	}
	return &s3.PutObjectOutput{}, nil
}

func withFakeS3(t *testing.T, f *fakeS3) {
	t.Helper()
	old := newS3Client
	newS3Client = func(ctx context.Context) (s3iface, error) { return f, nil }
	t.Cleanup(func() { newS3Client = old })
}

func TestReadAllFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "clients.csv")
	content := "FIRST NAME,LAST NAME\nAmal,Hassan\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, uri := range []string{"file://" + p, p} {
		b, err := ReadAll(context.Background(), uri)
		if err != nil {
			t.Fatalf("ReadAll(%q) err: %v", uri, err)
		}
		if string(b) != content {
			t.Fatalf("content mismatch: %q", string(b))
		}
	}
}

func TestOpenS3(t *testing.T) {
	f := &fakeS3{getBody: []byte("FIRST NAME\tLAST NAME\n")}
	withFakeS3(t, f)
	rc, sz, err := Open(context.Background(), "s3://bucket/in/clients.tsv")
	if err != nil {
		t.Fatalf("Open s3 err: %v", err)
	}
	defer rc.Close()
	if sz != int64(len(f.getBody)) {
		t.Fatalf("size got %d want %d", sz, len(f.getBody))
	}
}

func TestWriteLinesS3(t *testing.T) {
	f := &fakeS3{}
	withFakeS3(t, f)
	n, err := WriteLines(context.Background(), "s3://reports/run-1/errors.txt", []string{"one", "two"})
	if err != nil || n != 2 {
		t.Fatalf("WriteLines n=%d err=%v", n, err)
	}
	if f.putLastBucket != "reports" || f.putLastKey != "run-1/errors.txt" {
		t.Fatalf("put to %s/%s", f.putLastBucket, f.putLastKey)
	}
	if string(f.putLastBody) != "one\ntwo\n" {
		t.Fatalf("body=%q", f.putLastBody)
	}
}

func TestWriteLinesFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "report.txt")
	if _, err := WriteLines(context.Background(), "file://"+p, []string{"a"}); err != nil {
		t.Fatalf("WriteLines err: %v", err)
	}
	b, _ := os.ReadFile(p)
	if string(b) != "a\n" {
		t.Fatalf("file content: %q", b)
	}
}

func TestUnsupportedScheme(t *testing.T) {
	if _, _, err := Open(context.Background(), "ftp://host/x"); err == nil {
		t.Fatalf("expected error for ftp scheme")
	}
	if _, err := CreateWriter(context.Background(), "gs://b/k"); err == nil {
		t.Fatalf("expected error for gs scheme")
	}
}

func TestS3PutError(t *testing.T) {
	boom := errors.New("denied")
	withFakeS3(t, &fakeS3{putErr: boom})
	if _, err := WriteLines(context.Background(), "s3://b/k", []string{"x"}); !errors.Is(err, boom) {
		t.Fatalf("err=%v; want %v", err, boom)
	}
}
