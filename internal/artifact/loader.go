package artifact

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Source fetches a raw artifact payload from where it is stored
type Source interface {
	Fetch(ctx context.Context) ([]byte, Format, error)
	String() string
}

// FileSource reads the artifact from the local filesystem
type FileSource struct {
	Path string
}

// Fetch reads the file and infers its format from the extension
func (f FileSource) Fetch(_ context.Context) ([]byte, Format, error) {
	format, err := FormatFromPath(f.Path)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read artifact file: %w", err)
	}
	return data, format, nil
}

func (f FileSource) String() string {
	return "file:" + f.Path
}

// Loader performs the one-time artifact load at startup
type Loader struct {
	hmacSecret string
	hmacDigest string
	log        *logrus.Logger
}

// NewLoader creates a loader. When hmacSecret is set, payloads must carry
// the expected hex HMAC-SHA256 digest.
func NewLoader(hmacSecret, hmacDigest string, log *logrus.Logger) *Loader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Loader{hmacSecret: hmacSecret, hmacDigest: hmacDigest, log: log}
}

// Load fetches, verifies and decodes the artifact from src
func (l *Loader) Load(ctx context.Context, src Source) (*ModelArtifact, error) {
	data, format, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArtifact, err)
	}
	l.log.Debugf("Fetched %d byte %s artifact from %s", len(data), format, src)

	if l.hmacSecret != "" {
		if err := VerifyHMAC(data, l.hmacSecret, l.hmacDigest); err != nil {
			return nil, err
		}
	}

	a, err := Decode(format, data)
	if err != nil {
		return nil, err
	}

	info := a.Describe()
	l.log.WithFields(logrus.Fields{
		"source":      src.String(),
		"version":     info.Version,
		"features":    len(info.Features),
		"scaled":      len(info.ScaledFeatures),
		"scaler":      info.ScalerKind,
		"fingerprint": info.Fingerprint,
	}).Info("Model artifact loaded")
	return a, nil
}

// GenerateHMAC returns the hex HMAC-SHA256 of data
func GenerateHMAC(data []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyHMAC checks data against the expected hex digest
func VerifyHMAC(data []byte, secret, expected string) error {
	if expected == "" {
		return fmt.Errorf("%w: integrity digest is required when a secret is configured", ErrMalformedArtifact)
	}
	want, err := hex.DecodeString(strings.TrimSpace(expected))
	if err != nil {
		return fmt.Errorf("%w: invalid integrity digest: %v", ErrMalformedArtifact, err)
	}
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	if !hmac.Equal(h.Sum(nil), want) {
		return fmt.Errorf("%w: integrity digest mismatch", ErrMalformedArtifact)
	}
	return nil
}
