// utils/r2.go
package utils

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var r2Client *s3.Client
var r2Bucket string
var cdnBaseURL string

// InitR2 configures the object-storage client used for report snapshots.
// Leaving the R2 settings empty is allowed: reporting is simply disabled.
func InitR2(cfg Config) error {
	if cfg.R2AccessKeyID == "" || cfg.R2AccessKeySecret == "" || cfg.R2Bucket == "" {
		return nil
	}

	r2Bucket = cfg.R2Bucket
	cdnBaseURL = cfg.CDNBaseURL
	if cdnBaseURL == "" {
		cdnBaseURL = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.CloudflareAccountID)
	}

	accountID := cfg.CloudflareAccountID
	awsCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.R2AccessKeyID, cfg.R2AccessKeySecret, "",
		)),
		config.WithEndpointResolver(aws.EndpointResolverFunc(
			func(service, region string) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID),
				}, nil
			}),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to load R2 config: %w", err)
	}

	r2Client = s3.NewFromConfig(awsCfg)
	return nil
}

// R2Enabled reports whether an object-storage client was configured.
func R2Enabled() bool {
	return r2Client != nil
}

// UploadBytesToR2 uploads a payload to R2 and returns the public URL.
// key is the R2 object key (e.g., "reports/deep-scan-ab12.json")
func UploadBytesToR2(data []byte, key string, contentType string) (string, error) {
	if r2Client == nil {
		return "", fmt.Errorf("object storage is not configured")
	}

	_, err := r2Client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(r2Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}

	// Return public CDN URL (prefer your custom CDN if set)
	url := fmt.Sprintf("%s/%s", cdnBaseURL, key)
	return url, nil
}
