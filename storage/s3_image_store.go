package storage

import (
	"bytes"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

const (
	PostImageBucket    = "socialmedia-post-images"
	ProfileImageBucket = "socialmedia-profile-images"
)

// S3ImageStore stores images in a single S3 bucket. Two instances are wired
// at startup, one per logical bucket.
type S3ImageStore struct {
	bucket    string
	uploader  *s3manager.Uploader
	svc       *s3.S3
	urlPrefix string
}

func NewS3ImageStore(bucket string) (*S3ImageStore, error) {
	// AWS client session
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(os.Getenv("AWS_REGION")),
	})
	if err != nil {
		return nil, err
	}

	urlPrefix := os.Getenv("IMAGE_CDN_PREFIX")
	if urlPrefix == "" {
		urlPrefix = fmt.Sprintf("https://%s.s3.amazonaws.com/", bucket)
	}

	return &S3ImageStore{
		bucket:    bucket,
		uploader:  s3manager.NewUploader(sess),
		svc:       s3.New(sess),
		urlPrefix: urlPrefix,
	}, nil
}

func (s *S3ImageStore) Upload(key string, data []byte) (string, error) {
	_, err := s.uploader.Upload(&s3manager.UploadInput{
		ACL:    aws.String("public-read"),
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", err
	}
	return s.urlPrefix + key, nil
}

func (s *S3ImageStore) Delete(key string) error {
	_, err := s.svc.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}
