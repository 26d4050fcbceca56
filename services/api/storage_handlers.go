package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pavitra93/dealer-management-api/shared/middleware"
	"github.com/pavitra93/dealer-management-api/shared/storage"
	"github.com/pavitra93/dealer-management-api/shared/utils"
)

// DeleteFileRequest represents the delete file request
type DeleteFileRequest struct {
	FileURL string `json:"fileUrl"`
}

// handleUpload stores a multipart "file" in the caller's folder
func handleUpload(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := middleware.GetPrincipal(c)

		// leave room for the multipart envelope
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxUploadSize+1<<20)

		header, err := c.FormFile("file")
		if err != nil {
			utils.BadRequestResponse(c, "Please select a file to upload.")
			return
		}
		if header.Size > storage.MaxUploadSize {
			utils.BadRequestResponse(c, "File is larger than 5 MB.")
			return
		}

		file, err := header.Open()
		if err != nil {
			utils.HandleError(c, utils.Internal("Failed to read the uploaded file.", err))
			return
		}
		defer file.Close()

		obj, err := a.files.Upload(c.Request.Context(), principal, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
		if err != nil {
			utils.HandleError(c, err)
			return
		}

		utils.OKResponse(c, "File uploaded successfully.", obj)
	}
}

// handleDeleteFile removes a previously uploaded file
func handleDeleteFile(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := middleware.GetPrincipal(c)

		var req DeleteFileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "File URL to delete must be specified.")
			return
		}

		if err := a.files.Delete(c.Request.Context(), principal, req.FileURL); err != nil {
			utils.HandleError(c, err)
			return
		}
		utils.OKResponse(c, "File deleted successfully.", nil)
	}
}
