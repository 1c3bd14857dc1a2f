// Package iopkg opens and writes file:// and s3:// locations for input
// sheets and exported reports.
package iopkg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MaxInputSize caps how much of an input sheet is read into memory.
const MaxInputSize = 64 << 20

var ErrTooLarge = errors.New("input exceeds maximum size")

// s3iface is the minimal subset of s3 client methods we use; allows test fakes.
type s3iface interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// newS3Client constructs an s3 client; overridden in tests. MinIO is
// reached through AWS_ENDPOINT_URL_S3 and AWS_S3_FORCE_PATH_STYLE.
var newS3Client = func(ctx context.Context) (s3iface, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if ep := os.Getenv("AWS_ENDPOINT_URL_S3"); ep != "" {
			o.BaseEndpoint = aws.String(ep)
		}
		if strings.EqualFold(os.Getenv("AWS_S3_FORCE_PATH_STYLE"), "true") {
			o.UsePathStyle = true
		}
	}), nil
}

func splitS3(u *url.URL) (bucket, key string) {
	return u.Host, strings.TrimPrefix(u.Path, "/")
}

// Open returns a ReadCloser and (if known) size for file:// or s3:// URIs.
// A bare path is treated as a local file.
func Open(ctx context.Context, uri string) (io.ReadCloser, int64, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, 0, err
	}
	switch u.Scheme {
	case "file", "":
		f, err := os.Open(strings.TrimPrefix(uri, "file://"))
		if err != nil {
			return nil, 0, err
		}
		var sz int64
		if st, _ := f.Stat(); st != nil {
			sz = st.Size()
		}
		return f, sz, nil
	case "s3":
		cl, err := newS3Client(ctx)
		if err != nil {
			return nil, 0, err
		}
		bkt, key := splitS3(u)
		resp, err := cl.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bkt), Key: aws.String(key)})
		if err != nil {
			return nil, 0, err
		}
		var sz int64
		if resp.ContentLength != nil {
			sz = *resp.ContentLength
		}
		return resp.Body, sz, nil
	default:
		return nil, 0, errors.New("unsupported scheme: " + u.Scheme)
	}
}

// ReadAll reads the whole object at uri, up to MaxInputSize.
func ReadAll(ctx context.Context, uri string) ([]byte, error) {
	rc, _, err := Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, MaxInputSize+1))
	if err != nil {
		return nil, err
	}
	if len(b) > MaxInputSize {
		return nil, ErrTooLarge
	}
	return b, nil
}

// CreateWriter supports file:// and s3://. S3 objects are buffered in memory
// and uploaded on Close.
func CreateWriter(ctx context.Context, uri string) (io.WriteCloser, error) {
	if strings.HasPrefix(uri, "file://") || !strings.Contains(uri, "://") {
		p := strings.TrimPrefix(uri, "file://")
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, err
		}
		return os.Create(p)
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "s3" {
		return nil, errors.New("unsupported scheme for CreateWriter: " + u.Scheme)
	}
	bkt, key := splitS3(u)
	return &s3Writer{ctx: ctx, bucket: bkt, key: key}, nil
}

type s3Writer struct {
	ctx    context.Context
	bucket string
	key    string
	buf    bytes.Buffer
	done   bool
}

func (w *s3Writer) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *s3Writer) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	cl, err := newS3Client(w.ctx)
	if err != nil {
		return err
	}
	_, err = cl.PutObject(w.ctx, &s3.PutObjectInput{
		Bucket: aws.String(w.bucket),
		Key:    aws.String(w.key),
		Body:   bytes.NewReader(w.buf.Bytes()),
	})
	return err
}

// WriteLines writes one line per entry to uri and returns the count.
func WriteLines(ctx context.Context, uri string, lines []string) (int, error) {
	w, err := CreateWriter(ctx, uri)
	if err != nil {
		return 0, err
	}
	bw := bufio.NewWriter(w)
	for _, l := range lines {
		if _, err := bw.WriteString(l + "\n"); err != nil {
			_ = w.Close()
			return 0, err
		}
	}
	if err := bw.Flush(); err != nil {
		_ = w.Close()
		return 0, err
	}
	return len(lines), w.Close()
}
