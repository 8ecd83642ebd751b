package session

import "strings"

// mimeByExtension resolves a filename's media type by extension. Unknown
// extensions yield application/octet-stream.
func mimeByExtension(filename string) string {
	ext := strings.ToLower(filename)
	if i := strings.LastIndexByte(ext, '.'); i >= 0 {
		ext = ext[i:]
	} else {
		ext = ""
	}
	if mt, ok := mimeTable[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}

var mimeTable = map[string]string{
	".txt":  "text/plain",
	".csv":  "text/csv",
	".json": "application/json",
	".html": "text/html",
	".htm":  "text/html",
	".xml":  "application/xml",
	".md":   "text/markdown",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".gz":   "application/gzip",
	".tar":  "application/x-tar",
	".py":   "text/x-python",
	".log":  "text/plain",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".parquet": "application/octet-stream",
}
