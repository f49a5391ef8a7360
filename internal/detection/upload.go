package detection

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/kdimtricp/deepcheck/internal/apperrors"
)

// MaxUploadSize is the default upload ceiling, 50 MiB.
const MaxUploadSize int64 = 50 * 1024 * 1024

var (
	AllowedVideoTypes = []string{"video/mp4", "video/avi", "video/mov", "video/webm"}
	AllowedImageTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}
)

const (
	msgNoFile      = "No file provided"
	msgInvalidType = "Invalid file type. Supported formats: MP4, AVI, MOV, WebM for videos; JPEG, PNG, WebP for images"
)

// sniffedAliases maps registered media types onto the spellings the upload
// allow-list uses.
var sniffedAliases = map[string]string{
	"video/quicktime": "video/mov",
	"video/x-msvideo": "video/avi",
}

// NormalizeMimeType trusts the declared type unless it is missing or generic,
// in which case data is sniffed and the result mapped onto the allow-list.
func NormalizeMimeType(declared string, data []byte) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}

	detected := mimetype.Detect(data)
	for _, allowed := range slices.Concat(AllowedVideoTypes, AllowedImageTypes) {
		if detected.Is(allowed) {
			return allowed
		}
	}
	for registered, alias := range sniffedAliases {
		if detected.Is(registered) {
			return alias
		}
	}
	return detected.String()
}

func AllowedType(mimeType string) bool {
	return slices.Contains(AllowedVideoTypes, mimeType) || slices.Contains(AllowedImageTypes, mimeType)
}

// ValidateUpload checks presence, then size, then type. A non-positive
// maxSize falls back to MaxUploadSize.
func ValidateUpload(fileName, mimeType string, size, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = MaxUploadSize
	}
	if fileName == "" && size == 0 {
		return apperrors.InvalidInput(msgNoFile)
	}
	if size > maxSize {
		return apperrors.InvalidInput(fmt.Sprintf("File size too large. Maximum size is %dMB", maxSize/(1024*1024)))
	}
	if !AllowedType(mimeType) {
		return apperrors.InvalidInput(msgInvalidType)
	}
	return nil
}
