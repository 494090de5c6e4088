package handlers

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"inventory-service/internal/storage"
)

// UploadHandler stores item images and attachments in the media store.
type UploadHandler struct {
	Media *storage.MediaStore
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(media *storage.MediaStore) *UploadHandler {
	return &UploadHandler{Media: media}
}

func isAllowedImageExtension(ext string) bool {
	allowed := map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
	}
	return allowed[ext]
}

// Upload handles POST /upload for multipart image uploads.
// @Summary Upload an image
// @Description Store an item image or attachment and return its URL
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file (jpg, jpeg, png, webp)"
// @Success 200 {object} map[string]interface{} "URL of the stored file"
// @Failure 400 {object} map[string]interface{} "Invalid image format"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /upload [post]
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "file is required",
		})
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !isAllowedImageExtension(ext) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "Invalid image format",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Printf("Error opening uploaded file: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": "Failed to read upload",
		})
	}
	defer file.Close()

	key := fmt.Sprintf("uploads/%s%s", uuid.New(), ext)
	contentType := fileHeader.Header.Get(fiber.HeaderContentType)
	if err := h.Media.Put(c.Context(), key, file, fileHeader.Size, contentType); err != nil {
		log.Printf("Error storing upload: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": "Failed to store upload",
		})
	}

	return c.JSON(fiber.Map{"url": h.Media.URL(key)})
}
