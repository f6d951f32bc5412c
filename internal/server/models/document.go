package models

// Document describes an evidence file attached to a claim. Only encrypted
// bytes ever reach the backing store; EncryptedPath is the opaque locator
// of that blob and the only value used to find it. The uploader-supplied
// file name is kept for display and content-type inference, never for
// path construction.
type Document struct {
	ID      int64
	ClaimID int64

	// FileName is the original name as supplied by the uploader.
	FileName string
	// EncryptedPath is the blob locator produced by the encryption service.
	EncryptedPath string
	// FileSize is the original, pre-encryption size in bytes.
	FileSize int64
	// FileType is the normalized lower-case extension, including the dot.
	FileType string
}

// ContentType maps the stored file type to the MIME type served on
// download. Unknown types fall back to a generic octet stream.
func (d *Document) ContentType() string {
	switch d.FileType {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
