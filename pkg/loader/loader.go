package loader

import (
	"context"
	"path/filepath"
	"strings"
)

// FormFile is a scanned form to be analysed. The image content is retrieved
// through the associated FileLoader, so the same pipeline works for local
// files and object storage.
type FormFile struct {
	ID       string
	FilePath string
	Loader   FileLoader
}

// NewFormFileParams defines the input parameters for creating a FormFile.
type NewFormFileParams struct {
	ID       string
	FilePath string
	Loader   FileLoader
}

// NewFormFile creates a FormFile from the given parameters. An empty ID falls
// back to the file path.
func NewFormFile(params NewFormFileParams) FormFile {
	id := params.ID
	if id == "" {
		id = params.FilePath
	}
	return FormFile{
		ID:       id,
		FilePath: params.FilePath,
		Loader:   params.Loader,
	}
}

// Name returns the base name of the file.
func (f FormFile) Name() string {
	return filepath.Base(f.FilePath)
}

// Stem returns the base name without its extension.
func (f FormFile) Stem() string {
	name := f.Name()
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// GetBytes retrieves the raw content of the file using its Loader.
//
// Example:
//
//	data, err := file.GetBytes(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
func (f FormFile) GetBytes(ctx context.Context) ([]byte, error) {
	return f.Loader.GetFileBytes(ctx, f)
}

// FileLoader defines the interface for loading the contents of a FormFile.
// Implementations may load files from disk, cloud storage, or other sources.
type FileLoader interface {
	GetFileBytes(ctx context.Context, file FormFile) ([]byte, error)
}

// BytesLoader serves content that is already in memory, such as an HTTP
// upload.
type BytesLoader []byte

func (b BytesLoader) GetFileBytes(ctx context.Context, file FormFile) ([]byte, error) {
	return b, nil
}

// CacheKey generates a unique cache key for a FormFile based on its ID and path.
func CacheKey(file FormFile) string {
	return file.ID + ":" + file.FilePath
}

var supportedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// IsSupportedImage reports whether path has an extension the analysis service
// accepts. The check is case-insensitive.
func IsSupportedImage(path string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}
