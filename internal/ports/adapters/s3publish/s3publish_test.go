package s3publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Bitshifter-9/kannada-hindi/internal/failure"
)

type fakePutter struct {
	bucket, key, body, contentType string
	size                           int64
	err                            error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	f.contentType = aws.ToString(in.ContentType)
	f.size = aws.ToInt64(in.ContentLength)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func TestPublishUploadsUnderRunPrefix(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "final_dubbed.mp4")
	if err := os.WriteFile(file, []byte("mp4data"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fp := &fakePutter{}
	p := &Publisher{opts: Options{Bucket: "dubs-bucket", Prefix: "/dubs/"}, client: fp}
	url, err := p.Publish(context.Background(), "run-1", file)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if url != "s3://dubs-bucket/dubs/run-1/final_dubbed.mp4" {
		t.Fatalf("unexpected url %q", url)
	}
	if fp.bucket != "dubs-bucket" || fp.key != "dubs/run-1/final_dubbed.mp4" {
		t.Fatalf("unexpected target %s/%s", fp.bucket, fp.key)
	}
	if fp.body != "mp4data" || fp.size != 7 || fp.contentType != "video/mp4" {
		t.Fatalf("unexpected upload body=%q size=%d type=%q", fp.body, fp.size, fp.contentType)
	}
}

func TestPublishErrors(t *testing.T) {
	t.Parallel()

	p := &Publisher{opts: Options{Bucket: "b"}, client: &fakePutter{}}
	if _, err := p.Publish(context.Background(), "r", filepath.Join(t.TempDir(), "missing.mp4")); !errors.Is(err, failure.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}

	file := filepath.Join(t.TempDir(), "final_dubbed.mp4")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	p.client = &fakePutter{err: errors.New("AccessDenied")}
	if _, err := p.Publish(context.Background(), "r", file); !errors.Is(err, failure.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestKeyWithoutPrefix(t *testing.T) {
	t.Parallel()

	p := &Publisher{}
	if got := p.Key("abc", "/tmp/out/final_dubbed.mp4"); got != "abc/final_dubbed.mp4" {
		t.Fatalf("unexpected key %q", got)
	}
}
