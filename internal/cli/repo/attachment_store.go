package repo

// AttachmentStore is the local file side of attachment transfer. Implemented by fs.AttachmentFSStore.
type AttachmentStore interface {
	// ResolvePath returns the target file for a download of name into output.
	ResolvePath(output, name string) (string, error)
	// EnsureDir creates a directory tree.
	EnsureDir(dir string) error
	// SaveBase64 decodes data into path and returns the number of bytes written.
	SaveBase64(path, data string) (int, error)
	// LoadBase64 reads a local file, returning its base name and base64 content.
	LoadBase64(path string) (string, string, error)
}
