package handlers

import (
	"crypto/rand"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"thaniel-pos-services/internal/utils"
	"thaniel-pos-services/pkg/response"
)

const (
	menuImageMaxWidth = 1200
	menuThumbSize     = 300
)

func readFileBytes(r *http.Request, field string, maxBytes int64) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("file is required")
	}
	defer file.Close()

	if maxBytes <= 0 {
		maxBytes = 5 * 1024 * 1024
	}
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file")
	}
	if int64(len(data)) > maxBytes {
		return nil, "", fmt.Errorf("file size must be less than %dMB", maxBytes/(1024*1024))
	}

	ct := strings.TrimSpace(header.Header.Get("Content-Type"))
	if ct == "" {
		ct = utils.DetectContentType(data)
	}
	return data, strings.ToLower(ct), nil
}

func randomSuffix8() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%x", b)
}

// MenuUploadImage normalizes an uploaded photo to JPEG, stores the full image
// plus a square thumbnail, and points the menu row at the new full image.
func (h *Handler) MenuUploadImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Objects == nil {
		response.Error(w, http.StatusServiceUnavailable, "UPLOADS_DISABLED", "Object storage is not configured")
		return
	}

	menuID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid menu id")
		return
	}

	var exists bool
	if err := h.DB.QueryRow(ctx, `select exists(select 1 from menus where id = $1)`, menuID).Scan(&exists); err != nil {
		h.writeDomainError(w, err)
		return
	}
	if !exists {
		response.Error(w, http.StatusNotFound, "MENU_NOT_FOUND", "Menu not found")
		return
	}

	data, contentType, err := readFileBytes(r, "file", h.Config.MaxFileSizeBytes)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_FILE", err.Error())
		return
	}
	if !utils.ValidateImageContentType(contentType) {
		response.Error(w, http.StatusBadRequest, "INVALID_FILE", "Invalid file type. Please upload an image file.")
		return
	}

	fullJpeg, err := utils.ProcessMenuImage(data, menuImageMaxWidth)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_FILE", "Could not decode image")
		return
	}
	thumbJpeg, err := utils.MenuThumbnail(data, menuThumbSize)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_FILE", "Could not decode image")
		return
	}

	suffix := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), randomSuffix8())
	fullKey := fmt.Sprintf("menus/menu-%d-%s.jpg", menuID, suffix)
	thumbKey := fmt.Sprintf("menus/menu-%d-thumb-%s.jpg", menuID, suffix)

	fullURL, err := h.Objects.PutObject(ctx, fullKey, fullJpeg, "image/jpeg")
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to upload image")
		return
	}
	thumbURL, err := h.Objects.PutObject(ctx, thumbKey, thumbJpeg, "image/jpeg")
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to upload image")
		return
	}

	if _, err := h.DB.Exec(ctx, `update menus set image_url = $1, updated_at = now() where id = $2`, fullURL, menuID); err != nil {
		h.writeDomainError(w, err)
		return
	}

	response.Success(w, map[string]any{
		"menuId":   menuID,
		"url":      fullURL,
		"thumbUrl": thumbURL,
	})
}
