package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/emdat-etl/internal/domain"
	"github.com/couchcryptid/emdat-etl/internal/ingest"
	"github.com/couchcryptid/emdat-etl/internal/pipeline"
)

// uploadResponse summarizes an accepted batch. Events are fetched separately.
type uploadResponse struct {
	BatchID    string             `json:"batchId"`
	Source     string             `json:"source"`
	Format     domain.Format      `json:"format"`
	IngestedAt time.Time          `json:"ingestedAt"`
	Events     int                `json:"events"`
	Rejected   int                `json:"rejected"`
	Rejections []domain.Rejection `json:"rejections,omitempty"`
}

func summarize(b domain.Batch) uploadResponse {
	return uploadResponse{
		BatchID:    b.ID,
		Source:     b.Source,
		Format:     b.Format,
		IngestedAt: b.IngestedAt,
		Events:     len(b.Events),
		Rejected:   b.Rejected,
		Rejections: b.Rejections,
	}
}

type eventsResponse struct {
	Total  int                    `json:"total"`
	Offset int                    `json:"offset"`
	Limit  int                    `json:"limit"`
	Events []domain.DisasterEvent `json:"events"`
}

// handleUpload accepts either a multipart form with a "file" part or a raw
// body named by the filename query parameter.
func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)

	upload, err := readUpload(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("file exceeds the %d byte limit", s.maxUpload),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	batch, err := s.uploader.Ingest(c.Request.Context(), upload)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, summarize(batch))
	case ingest.IsBatchError(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, pipeline.ErrStaleBatch):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		s.logger.Error("upload failed", "error", err, "filename", upload.Filename)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to ingest upload"})
	}
}

func readUpload(c *gin.Context) (pipeline.Upload, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return pipeline.Upload{}, err
			}
			return pipeline.Upload{}, fmt.Errorf("missing file part: %w", err)
		}
		f, err := fh.Open()
		if err != nil {
			return pipeline.Upload{}, fmt.Errorf("open file part: %w", err)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return pipeline.Upload{}, fmt.Errorf("read file part: %w", err)
		}
		return pipeline.Upload{Filename: fh.Filename, Data: data}, nil
	}

	filename := c.Query("filename")
	if filename == "" {
		return pipeline.Upload{}, errors.New("filename query parameter is required for raw uploads")
	}
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return pipeline.Upload{}, err
	}
	return pipeline.Upload{Filename: filename, Data: data}, nil
}

func (s *Server) handleBatch(c *gin.Context) {
	batch, ok := s.events.Current()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no batch has been ingested yet"})
		return
	}
	c.JSON(http.StatusOK, summarize(batch))
}

func (s *Server) handleEvents(c *gin.Context) {
	f, err := parseFilter(c, true)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	events, total := s.events.Events(f)
	c.JSON(http.StatusOK, eventsResponse{
		Total:  total,
		Offset: f.Offset,
		Limit:  f.Limit,
		Events: events,
	})
}

func (s *Server) handleGeoJSON(c *gin.Context) {
	f, err := parseFilter(c, true)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	events, _ := s.events.Events(f)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, toGeoJSON(events))
}

func (s *Server) handleEvent(c *gin.Context) {
	id := c.Param("id")
	event, ok := s.events.Event(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("event %q not found", id)})
		return
	}
	c.JSON(http.StatusOK, event)
}

func (s *Server) handleStats(c *gin.Context) {
	f, err := parseFilter(c, false)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.events.Stats(f))
}
