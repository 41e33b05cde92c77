package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/pkg/config"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/pkg/logger"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/pkg/metrics"
)

// NewS3Client builds an S3 client with short connect/header timeouts.
// Archive access fans out into many small range reads, so a single slow
// read must fail fast instead of stalling the whole response.
func NewS3Client(ctx context.Context, cfg config.S3) (*s3.Client, error) {
	httpClient := awshttp.NewBuildableClient().
		WithDialerOptions(func(d *net.Dialer) {
			d.Timeout = cfg.ConnectTimeout
		}).
		WithTransportOptions(func(t *http.Transport) {
			t.TLSHandshakeTimeout = cfg.ConnectTimeout
			t.ResponseHeaderTimeout = cfg.ResponseHeaderTimeout
		})

	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithHTTPClient(httpClient),
	}
	if cfg.Region != "" {
		loadOptions = append(loadOptions, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	clientOptions := []func(*s3.Options){}
	if cfg.Endpoint != "" {
		clientOptions = append(clientOptions, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO and local S3-compatible stores
		})
	}

	return s3.NewFromConfig(awsCfg, clientOptions...), nil
}

// S3Source reads byte ranges of one archive object. Reads are billed to
// the requester so public archive buckets don't charge their owners.
type S3Source struct {
	client *s3.Client
	bucket string
	key    string
	logger logger.Logger
}

var _ Source = (*S3Source)(nil)

func NewS3Source(client *s3.Client, bucket, keyTemplate, archiveName string, l logger.Logger) *S3Source {
	return &S3Source{
		client: client,
		bucket: bucket,
		key:    strings.ReplaceAll(keyTemplate, "{name}", archiveName),
		logger: l,
	}
}

func (s *S3Source) Fetch(ctx context.Context, rng ByteRange, expectedETag string) (*FetchResult, error) {
	input := &s3.GetObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(s.key),
		Range:        aws.String(fmt.Sprintf("bytes=%d-%d", rng.Offset, rng.Offset+rng.Length-1)),
		RequestPayer: types.RequestPayerRequester,
	}
	if expectedETag != "" {
		input.IfMatch = aws.String(expectedETag)
	}

	start := time.Now()
	output, err := s.client.GetObject(ctx, input)
	metrics.ArchiveFetchLatency.Observe(time.Since(start).Seconds())
	metrics.ArchiveFetches.Inc()

	if err != nil {
		return nil, s.mapError(err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read object body: %v", ErrUnavailable, err)
	}
	metrics.ArchiveFetchBytes.Add(float64(len(data)))

	result := &FetchResult{
		Data:         data,
		ETag:         aws.ToString(output.ETag),
		CacheControl: aws.ToString(output.CacheControl),
	}
	if output.Expires != nil {
		result.Expires = *output.Expires
	}

	s.logger.Debug("fetched range",
		"key", s.key,
		"offset", rng.Offset,
		"length", rng.Length,
		"etag", result.ETag,
	)

	return result, nil
}

func (s *S3Source) mapError(err error) error {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, s.bucket, s.key)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %s/%s", ErrNotFound, s.bucket, s.key)
		case "AccessDenied":
			return fmt.Errorf("%w: %s/%s", ErrAccessDenied, s.bucket, s.key)
		case "PreconditionFailed":
			return fmt.Errorf("%w: %s/%s", ErrStale, s.bucket, s.key)
		}
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
