// Package validators rejects malformed input before anything touches the
// store or the ledger
package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/viper"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileNameTooLong     = errors.New("file name is too long")
	ErrFileTypeUnsupported = errors.New("unsupported file type")
	ErrNoFile              = errors.New("no file provided")
	ErrBadExpiry           = errors.New("expiry must be a non-negative number of minutes")
)

const maxFileNameSize = 255

// UploadValidator checks the multipart file header and sniffs the actual
// content type. Returns the detected MIME type on success so the caller
// doesn't have to trust the client-supplied one.
func UploadValidator(fh *multipart.FileHeader) (int, string, error) {
	if fh == nil || fh.Size == 0 {
		return http.StatusBadRequest, "", ErrNoFile
	}

	if len(fh.Filename) > maxFileNameSize {
		return http.StatusBadRequest, "", ErrFileNameTooLong
	}

	maxFileSize := viper.GetInt64("upload.max_size")
	if fh.Size > maxFileSize {
		return http.StatusRequestEntityTooLarge, "", ErrFileTooLarge
	}

	// Sniff the actual bytes instead of trusting the header, which is
	// trivial to spoof
	f, err := fh.Open()
	if err != nil {
		return http.StatusInternalServerError, "", err
	}
	defer f.Close()

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		return http.StatusInternalServerError, "", err
	}

	allowed := viper.GetStringSlice("upload.allowed_types")
	if len(allowed) > 0 && !typeAllowed(mime.String(), allowed) {
		return http.StatusBadRequest, "", ErrFileTypeUnsupported
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return http.StatusInternalServerError, "", err
	}

	return 0, mime.String(), nil
}

// typeAllowed matches exact types and "prefix/" wildcards like "image/".
func typeAllowed(mime string, allowed []string) bool {
	for _, a := range allowed {
		if strings.HasSuffix(a, "/") {
			if strings.HasPrefix(mime, a) {
				return true
			}

			continue
		}

		if mime == a {
			return true
		}
	}

	return false
}

// ExpiryValidator parses the optional expires_in_minutes form value.
// Returns nil when the field is absent.
func ExpiryValidator(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}

	minutes, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || minutes < 0 {
		return nil, ErrBadExpiry
	}

	return &minutes, nil
}
