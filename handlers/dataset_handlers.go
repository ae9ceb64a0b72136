package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sqlcamp/datagen/anomaly"
	"sqlcamp/datagen/generator"
	"sqlcamp/datagen/models"
	"sqlcamp/datagen/store"
	"sqlcamp/datagen/utils"
)

// DatasetHandlers exposes the four collaborator operations of the
// generation core. This is not a product API; the serving layers live in
// another service.
type DatasetHandlers struct {
	Assembler *generator.Assembler
	Injector  *anomaly.Injector
	Anomalies *store.AnomalyStore
	Datasets  *store.DatasetStore
	Log       *zap.SugaredLogger
}

func NewDatasetHandlers(a *generator.Assembler, in *anomaly.Injector, anomalies *store.AnomalyStore, datasets *store.DatasetStore, log *zap.SugaredLogger) *DatasetHandlers {
	return &DatasetHandlers{Assembler: a, Injector: in, Anomalies: anomalies, Datasets: datasets, Log: log}
}

func (h *DatasetHandlers) vertical(c *gin.Context) (models.Vertical, bool) {
	v := c.Param("vertical")
	if !models.IsValidVertical(v) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown vertical: " + v})
		return "", false
	}
	return models.Vertical(v), true
}

// GenerateDataset handles POST /api/datasets/:vertical/generate.
func (h *DatasetHandlers) GenerateDataset(c *gin.Context) {
	vertical, ok := h.vertical(c)
	if !ok {
		return
	}
	date, err := utils.ParseDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'date', expected YYYY-MM-DD"})
		return
	}

	// Generation is a batch job; give it room but not forever.
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Minute)
	defer cancel()

	version, err := h.Assembler.GenerateDataset(ctx, vertical, date)
	if err != nil {
		h.Log.Errorw("dataset generation failed", "vertical", vertical, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dataset generation failed"})
		return
	}
	c.JSON(http.StatusOK, version)
}

// InjectAnomaly handles POST /api/datasets/:vertical/anomalies.
func (h *DatasetHandlers) InjectAnomaly(c *gin.Context) {
	vertical, ok := h.vertical(c)
	if !ok {
		return
	}
	date, err := utils.ParseDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'date', expected YYYY-MM-DD"})
		return
	}

	var opts anomaly.Options
	if kind := c.Query("kind"); kind != "" {
		k, ok := utils.ParseAnomalyKind(kind)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown anomaly kind: " + kind})
			return
		}
		opts.ForceKind = &k
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()

	rec, err := h.Injector.Inject(ctx, vertical, date, opts)
	if err != nil {
		if errors.Is(err, models.ErrNoRowsMatched) {
			c.JSON(http.StatusConflict, gin.H{"error": "no rows matched any anomaly predicate; is the dataset loaded?"})
			return
		}
		h.Log.Errorw("anomaly injection failed", "vertical", vertical, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "anomaly injection failed"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GetLatestAnomaly handles GET /api/datasets/:vertical/anomalies/latest.
// A day without an anomaly is a normal-data day, answered with 200 and a
// null record rather than 404.
func (h *DatasetHandlers) GetLatestAnomaly(c *gin.Context) {
	vertical, ok := h.vertical(c)
	if !ok {
		return
	}
	date, err := utils.ParseDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'date', expected YYYY-MM-DD"})
		return
	}

	rec, err := h.Anomalies.GetLatest(c.Request.Context(), vertical, date)
	if err != nil {
		h.Log.Errorw("anomaly lookup failed", "vertical", vertical, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "anomaly lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"anomaly": rec})
}

// DataSummary handles GET /api/datasets/:vertical/summary.
func (h *DatasetHandlers) DataSummary(c *gin.Context) {
	vertical, ok := h.vertical(c)
	if !ok {
		return
	}
	summary, err := h.Assembler.BuildDataSummary(c.Request.Context(), vertical)
	if err != nil {
		h.Log.Errorw("summary build failed", "vertical", vertical, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "summary build failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// ListVersions handles GET /api/datasets/:vertical/versions.
func (h *DatasetHandlers) ListVersions(c *gin.Context) {
	vertical, ok := h.vertical(c)
	if !ok {
		return
	}
	versions, err := h.Datasets.ListVersions(c.Request.Context(), vertical, 10)
	if err != nil {
		h.Log.Errorw("version listing failed", "vertical", vertical, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "version listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"versions": versions})
}
