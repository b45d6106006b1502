package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// DefaultMaxUploadBytes applies when the router is given no upload limit.
const DefaultMaxUploadBytes = 512 << 20

var errNotZip = errors.New("upload must be a .zip archive")

// readUpload extracts the "file" part of a multipart request, capping the
// request body at limit bytes.
func readUpload(w http.ResponseWriter, r *http.Request, limit int64) (multipart.File, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, "", errors.New("file too large or invalid multipart")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", errors.New("missing 'file' field in multipart form")
	}
	name := filepath.Base(filepath.Clean(header.Filename))
	if !strings.EqualFold(filepath.Ext(name), ".zip") {
		file.Close()
		return nil, "", errNotZip
	}
	return file, name, nil
}
