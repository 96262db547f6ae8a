package adminapi

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/talkincode/commercedesk/internal/webserver"
)

func registerAttachmentRoutes() {
	webserver.ApiGET("/commerce/:id/attachments", listAttachments)
	webserver.ApiPOST("/commerce/:id/attachments", uploadAttachment)
	webserver.ApiGET("/attachments/:id/download", downloadAttachment)
	webserver.ApiDELETE("/attachments/:id", deleteAttachment)
}

func listAttachments(c echo.Context) error {
	commerceID, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid commerce ID", nil)
	}
	atts, err := attachmentStore.List(c.Request().Context(), commerceID)
	if err != nil {
		return failFromErr(c, err)
	}
	return ok(c, atts)
}

// uploadAttachment accepts a multipart form with a "file" part and an
// optional "description" field. The part is spooled to a temp file so
// the store sees a regular file it can stat and copy.
func uploadAttachment(c echo.Context) error {
	commerceID, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid commerce ID", nil)
	}

	// The commerce must exist before any file lands on disk.
	if _, err := commerceService.Get(c.Request().Context(), commerceID); err != nil {
		return failFromErr(c, err)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return fail(c, http.StatusBadRequest, "MISSING_FILE", "Multipart field 'file' is required", nil)
	}

	src, err := fh.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_FILE", "Unable to read uploaded file", nil)
	}
	defer src.Close()

	tmpDir, err := os.MkdirTemp("", "commercedesk-upload-")
	if err != nil {
		return fail(c, http.StatusInternalServerError, "UPLOAD_ERROR", "Failed to spool upload", err.Error())
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, filepath.Base(fh.Filename))
	dst, err := os.Create(tmpPath)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "UPLOAD_ERROR", "Failed to spool upload", err.Error())
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fail(c, http.StatusInternalServerError, "UPLOAD_ERROR", "Failed to spool upload", err.Error())
	}
	if err := dst.Close(); err != nil {
		return fail(c, http.StatusInternalServerError, "UPLOAD_ERROR", "Failed to spool upload", err.Error())
	}

	id, err := attachmentStore.Upload(c.Request().Context(), commerceID, tmpPath,
		c.FormValue("description"), c.FormValue("uploaded_by"))
	if err != nil {
		return failFromErr(c, err)
	}

	att, err := attachmentStore.Resolve(c.Request().Context(), id)
	if err != nil {
		return failFromErr(c, err)
	}
	return ok(c, att)
}

func downloadAttachment(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid attachment ID", nil)
	}
	att, err := attachmentStore.Resolve(c.Request().Context(), id)
	if err != nil {
		return failFromErr(c, err)
	}
	return c.Attachment(att.StoragePath, att.OriginalName)
}

func deleteAttachment(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid attachment ID", nil)
	}
	deleted, err := attachmentStore.Delete(c.Request().Context(), id)
	if err != nil {
		return failFromErr(c, err)
	}
	return ok(c, map[string]interface{}{"id": id, "deleted": deleted})
}
