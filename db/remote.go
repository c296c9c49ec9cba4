package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var ErrReadOnlySource = errors.New("source does not support writing")

type urlScheme string

const (
	schemeFile  urlScheme = "file"
	schemeS3    urlScheme = "s3"
	schemeHTTP  urlScheme = "http"
	schemeHTTPS urlScheme = "https"
	schemeGit   urlScheme = "git"
	schemeLocal urlScheme = "local" // no scheme, local path
)

func detectScheme(path string) urlScheme {
	lowerPath := strings.ToLower(path)
	switch {
	case strings.HasPrefix(lowerPath, "git+"):
		return schemeGit
	case strings.HasPrefix(lowerPath, "s3://"):
		return schemeS3
	case strings.HasPrefix(lowerPath, "https://"):
		return schemeHTTPS
	case strings.HasPrefix(lowerPath, "http://"):
		return schemeHTTP
	case strings.HasPrefix(lowerPath, "file://"):
		return schemeFile
	default:
		return schemeLocal
	}
}

// LocalPath returns the file system path of a local or file:// source, and
// false for any remote source.
func LocalPath(path string) (string, bool) {
	switch detectScheme(path) {
	case schemeLocal:
		return path, true
	case schemeFile:
		return path[len("file://"):], true
	default:
		return "", false
	}
}

// OpenSource opens a reader for a local path or one of the URL forms
// file://, http(s)://, s3://bucket/key and git+<repo>#<path>[@<branch>].
func OpenSource(ctx context.Context, path string, cfg SourceConfig) (io.ReadCloser, error) {
	if local, ok := LocalPath(path); ok {
		return osOpen(local)
	}

	switch detectScheme(path) {
	case schemeHTTP, schemeHTTPS:
		return openHTTPReader(ctx, path)
	case schemeS3:
		return openS3Reader(ctx, path, cfg)
	case schemeGit:
		return openGitReader(ctx, path, cfg.Git)
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s", path)
	}
}

// CreateSink opens a writer for a local path, file:// or s3:// URL. Data
// written to S3 is uploaded on Close.
func CreateSink(ctx context.Context, path string, cfg SourceConfig) (io.WriteCloser, error) {
	if local, ok := LocalPath(path); ok {
		return osCreate(local)
	}

	switch detectScheme(path) {
	case schemeS3:
		return openS3Writer(ctx, path, cfg)
	case schemeHTTP, schemeHTTPS, schemeGit:
		return nil, fmt.Errorf("%w: %s", ErrReadOnlySource, path)
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s", path)
	}
}

var httpClient = &http.Client{
	Timeout: 5 * time.Minute,
}

func openHTTPReader(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP request returned status %d", resp.StatusCode)
	}

	return resp.Body, nil
}

// parseS3URL parses s3://bucket/key into bucket and key parts
func parseS3URL(url string) (bucket, key string, err error) {
	path := url[len("s3://"):]
	parts := strings.SplitN(path, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid S3 URL: %s", url)
	}
	return parts[0], parts[1], nil
}

func newS3Client(ctx context.Context, cfg SourceConfig) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		opts = append(opts, config.WithCredentialsProvider(creds))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // S3-compatible services
		})
	}

	return s3.NewFromConfig(awsCfg, clientOpts...), nil
}

func openS3Reader(ctx context.Context, url string, cfg SourceConfig) (io.ReadCloser, error) {
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return nil, err
	}

	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}

	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get S3 object: %w", err)
	}

	return resp.Body, nil
}

// s3Uploader is the subset of *s3.Client used by s3Writer.
type s3Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3Writer buffers output and uploads it as one object on Close.
type s3Writer struct {
	ctx    context.Context
	client s3Uploader
	bucket string
	key    string
	buffer bytes.Buffer
	closed bool
}

func (w *s3Writer) Write(p []byte) (n int, err error) {
	if w.closed {
		return 0, fmt.Errorf("writer is closed")
	}
	return w.buffer.Write(p)
}

func (w *s3Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	_, err := w.client.PutObject(w.ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(w.key),
		Body:        bytes.NewReader(w.buffer.Bytes()),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	return nil
}

func openS3Writer(ctx context.Context, url string, cfg SourceConfig) (io.WriteCloser, error) {
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return nil, err
	}

	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &s3Writer{
		ctx:    ctx,
		client: client,
		bucket: bucket,
		key:    key,
	}, nil
}

// osOpen and osCreate are swapped in tests.
var osOpen = func(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

var osCreate = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}
