// Package server exposes a finished analysis document over HTTP so a
// dashboard can read it without touching the output file directly.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/salescope-lab/salescope/internal/report"
)

type Server struct {
	Engine *gin.Engine
	Addr   string
	doc    *report.Document
}

// New wires the read-only analysis routes around an in-memory document.
// The document is immutable once the run finishes, so handlers serve it
// without locking.
func New(addr string, doc *report.Document, mode string) *Server {
	if mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	s := &Server{
		Engine: r,
		Addr:   addr,
		doc:    doc,
	}

	r.GET("/healthz", s.healthHandler)
	v1 := r.Group("/api/v1")
	{
		v1.GET("/analysis", s.analysisHandler)
		v1.GET("/analysis/:store", s.storeHandler)
	}

	return s
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"run_id": s.doc.RunID,
		"stores": len(s.doc.Stores),
	})
}

func (s *Server) analysisHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.doc)
}

// storeHandler serves one store's slice of the document. The path
// parameter matches store_id by its rendered form, so numeric ids are
// looked up as numbers and alphanumeric ids as strings.
func (s *Server) storeHandler(c *gin.Context) {
	want := c.Param("store")
	for i := range s.doc.Stores {
		if fmt.Sprintf("%v", s.doc.Stores[i].StoreID) == want {
			c.JSON(http.StatusOK, s.doc.Stores[i])
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{
		"error": fmt.Sprintf("store %q not found in this analysis", want),
	})
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.Addr,
		Handler: s.Engine,
	}

	slog.Info("Starting HTTP Server...", "address", s.Addr)

	go func() {
		<-ctx.Done()
		slog.Info("Stopping HTTP Server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP Server forced to shutdown", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
