package handlers

import (
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	defaultLimit  = 10
	defaultOffset = 0
)

func pagination(ctx *gin.Context) (limit, offset int) {
	limit = defaultLimit
	offset = defaultOffset

	if raw := ctx.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			limit = parsed
		}
	}

	if raw := ctx.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	return limit, offset
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// allowedUpload checks the declared content type against the allow-list,
// falling back to the filename extension when the client sent no type.
func allowedUpload(file *multipart.FileHeader, mimeTypes, extensions []string) bool {
	contentType := file.Header.Get("Content-Type")

	if contentType != "" {
		for _, allowed := range mimeTypes {
			if contentType == allowed {
				return true
			}
		}
		return false
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	for _, allowed := range extensions {
		if ext == allowed {
			return true
		}
	}

	return false
}
