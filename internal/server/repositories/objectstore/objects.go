package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/pmcloud/internal/common"
)

type accountRecord struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PasswordDigest []byte `json:"password_digest"`
	AuthSalt       []byte `json:"auth_salt"`
	KDFSalt        []byte `json:"kdf_salt"`
	OpenSessions   int64  `json:"open_sessions"`
}

type nameRecord struct {
	AccountID string `json:"account_id"`
}

type entryRecord struct {
	ID             string `json:"id"`
	OwnerAccountID string `json:"owner_account_id"`
	AccountLabel   []byte `json:"account_label"`
	Secret         []byte `json:"secret"`
	Site           []byte `json:"site"`
}

type ownerRecord struct {
	OwnerAccountID string `json:"owner_account_id"`
}

// getJSON reads key into v and returns its ETag. A missing key is
// common.ErrorNotFound.
func (s *Store) getJSON(ctx context.Context, key string, v any) (string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("s3 get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("s3 read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return "", fmt.Errorf("decode %s: %w", key, err)
	}
	return stripETag(aws.ToString(out.ETag)), nil
}

// putCondition selects the conditional header for putJSON.
type putCondition struct {
	ifMatch     string
	ifNoneMatch bool
}

// putJSON writes v to key. Precondition failures are returned unwrapped so
// callers can test them with isPreconditionFailed.
func (s *Store) putJSON(ctx context.Context, key string, v any, cond putCondition) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}
	if cond.ifMatch != "" {
		input.IfMatch = aws.String(cond.ifMatch)
	} else if cond.ifNoneMatch {
		input.IfNoneMatch = aws.String("*")
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		if isPreconditionFailed(err) {
			return err
		}
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}

func (s *Store) delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}
