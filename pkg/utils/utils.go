package utils

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	NewImageID() string
	DecodeBase64Image(data string) ([]byte, error)
	MD5Hex(data []byte) string
}

type utils struct {
	maxImageSize int
}

func New() IUtils {
	return &utils{
		maxImageSize: 50 * 1024 * 1024,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// NewImageID issues an opaque id for an uploaded image.
func (u *utils) NewImageID() string {
	return "upload_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// DecodeBase64Image decodes a base64 payload, tolerating a data-URL
// prefix ("data:image/jpeg;base64,...").
func (u *utils) DecodeBase64Image(data string) ([]byte, error) {
	if data == "" {
		return nil, errors.New("empty image data")
	}

	if idx := strings.Index(data, ","); idx >= 0 {
		data = data[idx+1:]
	}

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}
	if len(decoded) > u.maxImageSize {
		return nil, errors.New("image exceeds size limit")
	}

	return decoded, nil
}

func (u *utils) MD5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
