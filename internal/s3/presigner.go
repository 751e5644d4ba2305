package s3

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"warbler/internal/config"
)

// FilePresigner hands out presigned PUT URLs for profile and header images.
type FilePresigner struct {
	presignClient *s3.PresignClient
	bucketName    string
	endpoint      string
	region        string
	usePathStyle  bool
	expires       time.Duration
}

func NewFilePresigner(ctx context.Context, cfg config.S3Config) (*FilePresigner, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	expires := cfg.UploadExpiry
	if expires <= 0 {
		expires = 15 * time.Minute
	}

	return &FilePresigner{
		presignClient: s3.NewPresignClient(s3Client),
		bucketName:    cfg.Bucket,
		endpoint:      strings.TrimRight(cfg.Endpoint, "/"),
		region:        cfg.Region,
		usePathStyle:  cfg.UsePathStyle,
		expires:       expires,
	}, nil
}

func (p *FilePresigner) GeneratePresignedUploadURL(ctx context.Context, objectKey, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(p.bucketName),
		Key:    aws.String(objectKey),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	request, err := p.presignClient.PresignPutObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = p.expires
	})
	if err != nil {
		return "", err
	}

	return request.URL, nil
}

// PublicURL is where the object can be read once uploaded.
func (p *FilePresigner) PublicURL(objectKey string) string {
	switch {
	case p.endpoint != "" && p.usePathStyle:
		return p.endpoint + "/" + p.bucketName + "/" + objectKey
	case p.endpoint != "":
		scheme, host, ok := strings.Cut(p.endpoint, "://")
		if !ok {
			return p.endpoint + "/" + p.bucketName + "/" + objectKey
		}
		return scheme + "://" + p.bucketName + "." + host + "/" + objectKey
	}
	return "https://" + p.bucketName + ".s3." + p.region + ".amazonaws.com/" + objectKey
}
