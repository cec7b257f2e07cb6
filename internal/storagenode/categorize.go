package storagenode

import (
	"path/filepath"
	"strings"
)

// Category is the coarse storage bucket a chunk lands under, derived from
// the owning file's extension. Ported from chunk_server.py's
// get_file_category.
type Category string

const (
	CategoryText      Category = "text"
	CategoryImages    Category = "images"
	CategoryDocuments Category = "documents"
	CategoryOther     Category = "other"
)

// categoryOrder is the fixed search order Get uses when the category of an
// existing chunk isn't already known.
var categoryOrder = []Category{CategoryText, CategoryImages, CategoryDocuments, CategoryOther}

var extensionCategory = map[string]Category{
	"txt": CategoryText, "log": CategoryText, "md": CategoryText, "json": CategoryText, "xml": CategoryText, "csv": CategoryText,

	"jpg": CategoryImages, "jpeg": CategoryImages, "png": CategoryImages, "gif": CategoryImages, "bmp": CategoryImages, "svg": CategoryImages, "webp": CategoryImages,

	"pdf": CategoryDocuments, "doc": CategoryDocuments, "docx": CategoryDocuments, "xls": CategoryDocuments, "xlsx": CategoryDocuments, "ppt": CategoryDocuments, "pptx": CategoryDocuments,
}

// skipExtensions are already-compressed media types stored raw instead of
// lz4-compressed at rest, matching compressor.ShouldSkipCompression.
var skipExtensions = map[string]bool{
	"mp4": true, "mkv": true, "avi": true, "mov": true,
	"mp3": true, "jpg": true, "jpeg": true, "png": true, "gif": true,
	"zip": true, "gz": true, "tar": true, "7z": true, "rar": true,
}

// Categorize maps a filename hint to its storage category.
func Categorize(filenameHint string) Category {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filenameHint), "."))
	if cat, ok := extensionCategory[ext]; ok {
		return cat
	}
	return CategoryOther
}

// shouldCompress reports whether a chunk's payload should be lz4-compressed
// at rest before being written to disk.
func shouldCompress(filenameHint string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filenameHint), "."))
	return !skipExtensions[ext]
}
