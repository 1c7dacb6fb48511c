package aws

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PresignedUpload is a signed PUT request a browser can send directly to S3.
type PresignedUpload struct {
	URL     string
	Headers map[string]string
	Expires time.Duration
}

// Presigner signs direct uploads into one bucket.
type Presigner struct {
	presign *s3.PresignClient
	bucket  string
	expiry  time.Duration
}

func NewPresigner(cfg sdkaws.Config, bucket string, expirySeconds int64) *Presigner {
	if expirySeconds <= 0 {
		expirySeconds = 900
	}
	return &Presigner{
		presign: s3.NewPresignClient(s3.NewFromConfig(cfg)),
		bucket:  bucket,
		expiry:  time.Duration(expirySeconds) * time.Second,
	}
}

func (p *Presigner) Bucket() string { return p.bucket }

// PresignPut signs a PUT for key with the given content type.
func (p *Presigner) PresignPut(ctx context.Context, key, contentType string) (*PresignedUpload, error) {
	input := &s3.PutObjectInput{
		Bucket: sdkaws.String(p.bucket),
		Key:    sdkaws.String(key),
	}
	if contentType != "" {
		input.ContentType = sdkaws.String(contentType)
	}

	req, err := p.presign.PresignPutObject(ctx, input, func(o *s3.PresignOptions) {
		o.Expires = p.expiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to presign put object: %w", err)
	}

	headers := make(map[string]string, len(req.SignedHeader))
	for k, v := range req.SignedHeader {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	return &PresignedUpload{URL: req.URL, Headers: headers, Expires: p.expiry}, nil
}
