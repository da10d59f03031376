package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"campusdesk-be/errs"
	"campusdesk-be/middlewares"
	"campusdesk-be/models"
	"campusdesk-be/services"
	"campusdesk-be/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// ImageSaver stores uploaded issue images.
type ImageSaver interface {
	Save(r io.Reader, originalName string) (string, error)
	Remove(url string) error
}

// IssueController serves the /api/issues routes.
type IssueController struct {
	issues         *services.IssueService
	stats          *services.AnalyticsService
	images         ImageSaver
	maxUploadBytes int64
	log            *zap.Logger
}

func NewIssueController(issues *services.IssueService, stats *services.AnalyticsService, images ImageSaver, maxUploadBytes int64, log *zap.Logger) *IssueController {
	return &IssueController{issues: issues, stats: stats, images: images, maxUploadBytes: maxUploadBytes, log: log}
}

// Create handles a new issue report, either multipart with an optional image
// or a plain JSON body.
func (ic *IssueController) Create(c *gin.Context) {
	var input services.SubmitInput
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := ic.readForm(c, &input); err != nil {
			respondError(c, ic.log, err)
			return
		}
	} else {
		var body struct {
			services.SubmitInput
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
		}
		if !bindJSON(c, ic.log, &body) {
			return
		}
		input = body.SubmitInput
		input.Lat, input.Lng = body.Lat, body.Lng
	}

	issue, err := ic.issues.Submit(c.Request.Context(), middlewares.CurrentIdentity(c), input)
	if err != nil {
		if input.ImageURL != "" {
			_ = ic.images.Remove(input.ImageURL)
		}
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Issue reported successfully", "issue": issue})
}

func (ic *IssueController) readForm(c *gin.Context, input *services.SubmitInput) error {
	input.Title = c.PostForm("title")
	input.Description = c.PostForm("description")
	input.Category = models.IssueCategory(c.PostForm("category"))
	input.Lat = formFloat(c, "lat")
	input.Lng = formFloat(c, "lng")

	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil
	}
	if err != nil {
		return errs.Validation("Invalid upload: " + err.Error())
	}
	if ic.maxUploadBytes > 0 && header.Size > ic.maxUploadBytes {
		return errs.Validation(fmt.Sprintf("Image must be at most %d bytes", ic.maxUploadBytes))
	}

	f, err := header.Open()
	if err != nil {
		return errs.Store("Failed to read upload", err)
	}
	defer f.Close()

	url, err := ic.images.Save(f, header.Filename)
	if errors.Is(err, utils.ErrUnsupportedImage) {
		return errs.Validation("Invalid file type, only images allowed")
	}
	if err != nil {
		return errs.Store("Failed to save upload", err)
	}
	input.ImageURL = url
	return nil
}

// formFloat returns nil for missing or unparsable values.
func formFloat(c *gin.Context, key string) *float64 {
	raw := strings.TrimSpace(c.PostForm(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// List returns the caller's visible issues one page at a time.
func (ic *IssueController) List(c *gin.Context) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil {
		page = 1
	}
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	result, err := ic.issues.List(c.Request.Context(), middlewares.CurrentIdentity(c), page, limit)
	if err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateStatus applies an admin triage change.
func (ic *IssueController) UpdateStatus(c *gin.Context) {
	var input struct {
		Status   *models.IssueStatus `json:"status"`
		Notified *bool               `json:"notified"`
	}
	if !bindJSON(c, ic.log, &input) {
		return
	}

	issue, err := ic.issues.SetStatus(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("id"), services.StatusChange{
		Status:   input.Status,
		Notified: input.Notified,
	})
	if err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Issue updated", "issue": issue})
}

// Stats returns the admin dashboard breakdowns.
func (ic *IssueController) Stats(c *gin.Context) {
	stats, err := ic.stats.Stats(c.Request.Context(), middlewares.CurrentIdentity(c))
	if err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Edit serves both the admin and the student edit routes.
func (ic *IssueController) Edit(c *gin.Context) {
	var input services.EditInput
	if !bindJSON(c, ic.log, &input) {
		return
	}

	issue, err := ic.issues.Edit(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("id"), input)
	if err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Issue updated successfully", "issue": issue})
}

// Delete serves both the admin and the student delete routes.
func (ic *IssueController) Delete(c *gin.Context) {
	if err := ic.issues.Remove(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("id")); err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted"})
}
