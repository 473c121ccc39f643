// Package s3publish uploads the delivered artifact to S3 or an S3-compatible store.
package s3publish

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Bitshifter-9/kannada-hindi/internal/failure"
)

// Options fall back to the standard AWS config and credential chain when empty.
type Options struct {
	Bucket       string
	Prefix       string
	Region       string
	Profile      string
	Endpoint     string
	UsePathStyle bool
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Publisher struct {
	opts   Options
	client objectPutter
}

func New(ctx context.Context, opts Options) (*Publisher, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, failure.Wrap(failure.ErrConfiguration, "", "s3", "load aws config", err)
	}
	c := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = opts.UsePathStyle
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return &Publisher{opts: opts, client: c}, nil
}

// Key returns the object key for a run's artifact.
func (p *Publisher) Key(runID, file string) string {
	return path.Join(strings.Trim(p.opts.Prefix, "/"), runID, filepath.Base(file))
}

func (p *Publisher) Publish(ctx context.Context, runID, file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", failure.Wrap(failure.ErrExternalTool, "", "s3", "open artifact", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", failure.Wrap(failure.ErrExternalTool, "", "s3", "stat artifact", err)
	}

	key := p.Key(runID, file)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.opts.Bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("video/mp4"),
	})
	if err != nil {
		return "", failure.Wrap(failure.ErrExternalTool, "", "s3", "put "+key, err)
	}
	return fmt.Sprintf("s3://%s/%s", p.opts.Bucket, key), nil
}
