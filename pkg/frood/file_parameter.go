package frood

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

// Upload error codes as reported by the transport for multipart file fields.
const (
	UploadOK        = 0
	UploadIniSize   = 1
	UploadFormSize  = 2
	UploadPartial   = 3
	UploadNoFile    = 4
	UploadNoTmpDir  = 6
	UploadCantWrite = 7
	UploadExtension = 8
)

var uploadErrorMessages = map[int]string{
	UploadOK:        "There is no error, the file uploaded with success.",
	UploadIniSize:   "The uploaded file exceeds the maximum upload size of the server.",
	UploadFormSize:  "The uploaded file exceeds the maximum file size specified in the form.",
	UploadPartial:   "The uploaded file was only partially uploaded.",
	UploadNoFile:    "No file was uploaded.",
	UploadNoTmpDir:  "Missing a temporary folder.",
	UploadCantWrite: "Failed to write file to disk.",
	UploadExtension: "File upload stopped by extension.",
}

// FileParameter describes an uploaded file stored at Path.
type FileParameter struct {
	Path         string
	OriginalName string
	Size         int64

	// MIMEType is sniffed from the stored content; the client-declared type is never used.
	MIMEType string

	// UploadError is nil when the transport reported no error code at all.
	UploadError *int
}

// NewFileParameter creates a FileParameter for a stored upload. A nil errCode means the
// transport reported no error.
func NewFileParameter(path, originalName string, size int64, errCode *int) *FileParameter {
	f := &FileParameter{
		Path:         path,
		OriginalName: originalName,
		Size:         size,
		UploadError:  errCode,
	}
	if f.Valid() && path != "" {
		if mt, err := mimetype.DetectFile(path); err == nil {
			f.MIMEType = mt.String()
		}
	}
	return f
}

// UploadErrorCode returns a pointer to code, for use with NewFileParameter
func UploadErrorCode(code int) *int {
	return &code
}

// Valid reports whether the upload succeeded
func (f *FileParameter) Valid() bool {
	return f.UploadError == nil || *f.UploadError == UploadOK
}

// ErrorCode returns the upload error code, UploadOK when none was reported
func (f *FileParameter) ErrorCode() int {
	if f.UploadError == nil {
		return UploadOK
	}
	return *f.UploadError
}

// ErrorMessage returns a human readable description of the upload error code
func (f *FileParameter) ErrorMessage() string {
	code := f.ErrorCode()
	if msg, ok := uploadErrorMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("Unknown upload error %d.", code)
}

// String implements fmt.Stringer
func (f *FileParameter) String() string {
	return fmt.Sprintf("%s (%s, %d bytes)", f.OriginalName, f.MIMEType, f.Size)
}
