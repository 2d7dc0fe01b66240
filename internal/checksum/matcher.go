package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// Fingerprint returns the hex encoded sha256 of an uploaded file.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ChecksumMatcher tells whether a file is byte-identical to one seen before.
type ChecksumMatcher struct {
	expectedChecksum string
}

func NewChecksumMatcher(expectedChecksum string) *ChecksumMatcher {
	return &ChecksumMatcher{expectedChecksum: expectedChecksum}
}

// Match checks if the provided data's checksum matches the expected checksum.
func (cm *ChecksumMatcher) Match(data []byte) (bool, error) {
	if cm.expectedChecksum == "" {
		return false, errors.New("expected checksum is not set")
	}
	return Fingerprint(data) == cm.expectedChecksum, nil
}
