package storage

import (
	"mime"
	"path/filepath"
	"strings"
)

const defaultContentType = "application/octet-stream"

var contentTypesByExt = map[string]string{
	".bin":  defaultContentType,
	".css":  "text/css",
	".csv":  "text/csv",
	".gif":  "image/gif",
	".go":   "text/x-go",
	".gz":   "application/gzip",
	".htm":  "text/html",
	".html": "text/html",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".js":   "text/javascript",
	".json": "application/json",
	".md":   "text/markdown",
	".pdf":  "application/pdf",
	".png":  "image/png",
	".rs":   "text/x-rust",
	".svg":  "image/svg+xml",
	".tar":  "application/x-tar",
	".toml": "application/toml",
	".txt":  "text/plain",
	".webp": "image/webp",
	".xml":  "application/xml",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".zip":  "application/zip",
}

// ContentTypeForPath infers a media type from the file extension. Parameters
// such as charset are dropped. Unknown extensions map to
// application/octet-stream.
func ContentTypeForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return defaultContentType
	}
	if ct, ok := contentTypesByExt[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			return mediaType
		}
	}
	return defaultContentType
}
