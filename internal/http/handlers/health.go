package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StorageStatus reports the most recent tolerated write failure.
type StorageStatus interface {
	LastStorageError() error
}

type HealthHandler struct {
	storage StorageStatus
}

func NewHealthHandler(storage StorageStatus) *HealthHandler {
	return &HealthHandler{storage: storage}
}

// HealthCheck stays 200 while writes fail; lessons are still served from memory.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	if h.storage != nil {
		if err := h.storage.LastStorageError(); err != nil {
			c.JSON(http.StatusOK, gin.H{"status": "degraded", "storage": err.Error()})
			return
		}
	}
	c.String(http.StatusOK, "ok")
}
