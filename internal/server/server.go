package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"go-upwork-scraper/internal/status"

	"github.com/gin-gonic/gin"
)

// NewRouter exposes the tracker over HTTP.
func NewRouter(tracker *status.Tracker) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Upwork scraper is running!",
			"status":  "healthy",
		})
	})

	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, tracker.Snapshot())
	})

	r.GET("/status/keywords/:keyword", func(c *gin.Context) {
		kw := c.Param("keyword")
		for _, ks := range tracker.Snapshot().Keywords {
			if ks.Keyword == kw {
				c.JSON(http.StatusOK, ks)
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown keyword"})
	})

	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("📡 Status server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
