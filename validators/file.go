package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/viper"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileNameTooLong     = errors.New("file name is too long")
	ErrFileTypeUnsupported = errors.New("unsupported file type")
	ErrNoFile              = errors.New("no file provided")
)

const maxFileNameSize = 255

// typeAllowed reports whether a MIME type matches any entry of
// upload.allowed_types. Entries ending in "/" match the whole class,
// so "image/" allows every image subtype. An empty list allows everything.
func typeAllowed(mime string) bool {
	allowed := viper.GetStringSlice("upload.allowed_types")
	if len(allowed) == 0 {
		return true
	}

	for _, t := range allowed {
		if strings.HasSuffix(t, "/") {
			if strings.HasPrefix(mime, t) {
				return true
			}
			continue
		}

		if mime == t {
			return true
		}
	}

	return false
}

// FileValidator checks an upload against the configured size and type
// limits. On success it returns the opened file rewound to the start
// together with the sniffed MIME type.
func FileValidator(fh *multipart.FileHeader) (int, multipart.File, *mimetype.MIME, error) {
	if fh == nil {
		return http.StatusBadRequest, nil, nil, ErrNoFile
	}

	if len(fh.Filename) > maxFileNameSize {
		return http.StatusBadRequest, nil, nil, ErrFileNameTooLong
	}

	if fh.Size > viper.GetInt64("upload.max_size") {
		return http.StatusRequestEntityTooLarge, nil, nil, ErrFileTooLarge
	}

	// Check headers first which is easy to spoof, but faster for legit clients
	if ct := fh.Header.Get("Content-Type"); ct != "" && !typeAllowed(ct) {
		return http.StatusBadRequest, nil, nil, ErrFileTypeUnsupported
	}

	// And now do the checks on the actual file to avoid
	// malicious clients
	f, err := fh.Open()
	if err != nil {
		return http.StatusInternalServerError, nil, nil, err
	}

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, nil, err
	}

	if !typeAllowed(mime.String()) {
		f.Close()
		return http.StatusBadRequest, nil, nil, ErrFileTypeUnsupported
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, nil, err
	}

	return 0, f, mime, nil
}
