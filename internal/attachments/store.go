// Package attachments stores documents (proposals, contracts, call notes)
// against a lead in S3.
package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/wolfman30/leadpilot-crm/pkg/logging"
)

// ErrDisabled is returned when no bucket is configured.
var ErrDisabled = errors.New("attachments: storage not configured")

// ErrInvalidName is returned for empty or path-like file names.
var ErrInvalidName = errors.New("attachments: invalid file name")

const defaultURLTTL = 15 * time.Minute

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Presigner is implemented by *s3.PresignClient.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Attachment describes a stored object.
type Attachment struct {
	Key          string    `json:"key"`
	FileName     string    `json:"file_name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	URL          string    `json:"url,omitempty"`
}

// Store writes attachments under leads/{userID}/{leadID}/.
type Store struct {
	bucket    string
	s3Client  S3API
	presigner Presigner
	urlTTL    time.Duration
	logger    *logging.Logger
}

// NewStore creates a Store. If bucket is empty every operation returns ErrDisabled.
func NewStore(s3Client S3API, presigner Presigner, bucket string, urlTTL time.Duration, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	if urlTTL <= 0 {
		urlTTL = defaultURLTTL
	}
	return &Store{bucket: bucket, s3Client: s3Client, presigner: presigner, urlTTL: urlTTL, logger: logger}
}

// Enabled returns true if storage is configured.
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

func prefix(userID, leadID string) string {
	return fmt.Sprintf("leads/%s/%s/", userID, leadID)
}

// Upload stores body and returns the new attachment.
func (s *Store) Upload(ctx context.Context, userID, leadID, fileName, contentType string, body io.Reader) (*Attachment, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	name := sanitizeName(fileName)
	if name == "" {
		return nil, ErrInvalidName
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := prefix(userID, leadID) + uuid.New().String() + "-" + name
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("attachments: s3 put %s: %w", key, err)
	}

	s.logger.Info("attachment stored", "lead_id", leadID, "user_id", userID, "s3_key", key)
	return &Attachment{Key: key, FileName: name, LastModified: time.Now().UTC()}, nil
}

// List returns the lead's attachments, newest first, with download URLs
// when a presigner is configured.
func (s *Store) List(ctx context.Context, userID, leadID string) ([]Attachment, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	p := prefix(userID, leadID)
	out := []Attachment{}

	var token *string
	for {
		page, err := s.s3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(p),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("attachments: s3 list %s: %w", p, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			a := Attachment{
				Key:          key,
				FileName:     displayName(strings.TrimPrefix(key, p)),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			}
			if url, err := s.presign(ctx, key); err == nil {
				a.URL = url
			} else if !errors.Is(err, ErrDisabled) {
				s.logger.Warn("attachment presign failed", "s3_key", key, "error", err)
			}
			out = append(out, a)
		}
		if !aws.ToBool(page.IsTruncated) || page.NextContinuationToken == nil {
			break
		}
		token = page.NextContinuationToken
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].LastModified.After(out[j].LastModified) })
	return out, nil
}

// PresignDownload returns a time-limited GET URL for key, which must belong
// to the given user and lead.
func (s *Store) PresignDownload(ctx context.Context, userID, leadID, key string) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}
	if !strings.HasPrefix(key, prefix(userID, leadID)) {
		return "", ErrInvalidName
	}
	return s.presign(ctx, key)
}

func (s *Store) presign(ctx context.Context, key string) (string, error) {
	if s.presigner == nil {
		return "", ErrDisabled
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.urlTTL))
	if err != nil {
		return "", fmt.Errorf("attachments: presign %s: %w", key, err)
	}
	return req.URL, nil
}

func sanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == '"':
			return -1
		case r == ' ':
			return '_'
		}
		return r
	}, name)
}

// displayName strips the uuid prefix added by Upload.
func displayName(base string) string {
	if len(base) > 37 && base[36] == '-' {
		if _, err := uuid.Parse(base[:36]); err == nil {
			return base[37:]
		}
	}
	return base
}
