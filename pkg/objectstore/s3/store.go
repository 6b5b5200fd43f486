package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/vodforge/vodforge/pkg/logging"
	"github.com/vodforge/vodforge/pkg/objectstore"
)

const (
	providerName = "s3"

	maxIdleConns = 100
)

// Store implements objectstore.ObjectStore over an S3-compatible service.
type Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	logger   logging.Interface
}

// NewStore creates a new S3-backed object store from the given configuration.
func NewStore(ctx context.Context, config *Config) (*Store, error) {
	logger := config.AnotherLogger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	client, err := initializeClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = int64(config.UploadPartSizeMB) * 1024 * 1024
		u.Concurrency = config.UploadConcurrency
	})

	logger.WithField("provider", providerName).
		WithField("region", config.Region).
		WithField("endpoint", config.Endpoint).
		Info("Object store client initialized")

	return &Store{
		client:   client,
		uploader: uploader,
		logger:   logger,
	}, nil
}

func initializeClient(ctx context.Context, config *Config) (*s3.Client, error) {
	configOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithHTTPClient(&http.Client{
			Timeout: time.Duration(config.HTTPTimeoutMinutes) * time.Minute,
			Transport: &http.Transport{
				MaxIdleConns:        maxIdleConns,
				MaxIdleConnsPerHost: maxIdleConns,
				IdleConnTimeout:     90 * time.Second,
			},
		}),
	}

	if config.Region != "" {
		configOpts = append(configOpts, awsconfig.WithRegion(config.Region))
	}

	if config.AccessKeyID != "" {
		configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	clientOpts := []func(*s3.Options){
		func(o *s3.Options) {
			if config.Endpoint != "" {
				o.BaseEndpoint = aws.String(config.Endpoint)
				o.UsePathStyle = !strings.Contains(config.Endpoint, "amazonaws.com")
			}
		},
	}

	return s3.NewFromConfig(awsCfg, clientOpts...), nil
}

// Head probes size and existence. A missing object is not an error.
func (s *Store) Head(ctx context.Context, ref objectstore.ObjectRef) (objectstore.HeadInfo, error) {
	result, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		if isNotFoundAPIError(err) {
			return objectstore.HeadInfo{Exists: false}, nil
		}
		return objectstore.HeadInfo{}, s.wrapError("Head", ref, err)
	}

	info := objectstore.HeadInfo{
		Exists:      true,
		Size:        aws.ToInt64(result.ContentLength),
		ContentType: aws.ToString(result.ContentType),
	}
	if result.ETag != nil {
		info.ETag = strings.Trim(*result.ETag, "\"")
	}
	return info, nil
}

// Get opens a whole-object read stream.
func (s *Store) Get(ctx context.Context, ref objectstore.ObjectRef) (io.ReadCloser, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		return nil, s.wrapError("Get", ref, err)
	}
	return result.Body, nil
}

// GetRange fetches the inclusive byte range [start, end].
func (s *Store) GetRange(ctx context.Context, ref objectstore.ObjectRef, start, end int64) ([]byte, error) {
	rangeHeader := fmt.Sprintf("bytes=%d-%d", start, end)

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
		Range:  aws.String(rangeHeader),
	})
	if err != nil {
		return nil, s.wrapError("GetRange", ref, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, s.wrapError("GetRange", ref, err)
	}

	expected := end - start + 1
	if int64(len(data)) != expected {
		return nil, objectstore.NewError("GetRange", ref, providerName, objectstore.ErrInternal,
			fmt.Errorf("range size mismatch: expected %d bytes, got %d", expected, len(data)))
	}
	return data, nil
}

// Put streams the reader into the object using the chunked upload manager
// and returns the object's location.
func (s *Store) Put(ctx context.Context, ref objectstore.ObjectRef, reader io.Reader, size int64, contentType string, metadata map[string]string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
		Body:   reader,
	}

	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if len(metadata) > 0 {
		input.Metadata = metadata
	}

	result, err := s.uploader.Upload(ctx, input)
	if err != nil {
		return "", s.wrapError("Put", ref, err)
	}

	location := result.Location
	if location == "" {
		location = ref.String()
	}
	return location, nil
}

// Delete removes an object.
func (s *Store) Delete(ctx context.Context, ref objectstore.ObjectRef) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		return s.wrapError("Delete", ref, err)
	}
	return nil
}

// PresignGet returns a time-limited read URL for the object.
func (s *Store) PresignGet(ctx context.Context, ref objectstore.ObjectRef, ttl time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(s.client)

	presignedReq, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return "", s.wrapError("PresignGet", ref, err)
	}

	return presignedReq.URL, nil
}

func isNotFoundAPIError(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}

// wrapError maps SDK errors onto the closed kind set exactly once, at this
// boundary.
func (s *Store) wrapError(op string, ref objectstore.ObjectRef, err error) error {
	if err == nil {
		return nil
	}
	return objectstore.NewError(op, ref, providerName, classifyAPIError(err), err)
}

func classifyAPIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return objectstore.ErrTimeout
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return objectstore.ErrNotFound
		case "AccessDenied", "AllAccessDisabled":
			return objectstore.ErrAccessDenied
		case "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken", "TokenRefreshRequired":
			return objectstore.ErrBadCredentials
		case "MalformedXML", "InvalidArgument", "InvalidRequest", "InvalidRange":
			return objectstore.ErrMalformedRequest
		case "BucketNotEmpty":
			return objectstore.ErrBucketNotEmpty
		case "KeyTooLongError":
			return objectstore.ErrInvalidKey
		case "RequestTimeout":
			return objectstore.ErrTimeout
		case "SlowDown", "Throttling", "ThrottlingException", "RequestLimitExceeded", "TooManyRequests":
			return objectstore.ErrThrottled
		case "InternalError", "ServiceUnavailable":
			return objectstore.ErrInternal
		}
	}

	return objectstore.ErrInternal
}
