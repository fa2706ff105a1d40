package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// CompressionConfig holds configuration for response compression
type CompressionConfig struct {
	MinSize          int      // Minimum response size to compress (bytes)
	CompressionLevel int      // Gzip compression level (1-9, 9 is best compression)
	ContentTypes     []string // Content types to compress
}

// DefaultCompressionConfig returns the default compression configuration
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize:          1024,
		CompressionLevel: gzip.DefaultCompression,
		ContentTypes: []string{
			"application/json",
			"application/yaml",
			"text/plain",
			"text/html",
		},
	}
}

// CompressionMiddleware gzips API responses. Bodies are buffered until the
// handler chain returns, so small or non-text responses go out untouched.
type CompressionMiddleware struct {
	config CompressionConfig
	stats  *CompressionStats
	pool   sync.Pool
}

// NewCompressionMiddleware creates a new compression middleware
func NewCompressionMiddleware(config CompressionConfig) *CompressionMiddleware {
	level := config.CompressionLevel
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	return &CompressionMiddleware{
		config: config,
		stats:  NewCompressionStats(),
		pool: sync.Pool{
			New: func() interface{} {
				gz, _ := gzip.NewWriterLevel(io.Discard, level)
				return gz
			},
		},
	}
}

// Handler returns the gin middleware
func (cm *CompressionMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !clientAcceptsGzip(c.Request) || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		bw := &bufferedWriter{ResponseWriter: c.Writer}
		c.Writer = bw
		defer func() { c.Writer = bw.ResponseWriter }()

		c.Next()

		cm.flush(bw)
	}
}

func (cm *CompressionMiddleware) flush(bw *bufferedWriter) {
	w := bw.ResponseWriter
	body := bw.buf.Bytes()
	if len(body) == 0 {
		return
	}

	status := w.Status()
	if len(body) < cm.config.MinSize ||
		status == http.StatusNoContent || status == http.StatusNotModified ||
		w.Header().Get("Content-Encoding") != "" ||
		!cm.shouldCompress(w.Header().Get("Content-Type")) {
		cm.stats.RecordRequest(int64(len(body)), int64(len(body)), false)
		_, _ = w.Write(body)
		return
	}

	var out bytes.Buffer
	gz := cm.getGzipWriter(&out)
	_, err := gz.Write(body)
	if err == nil {
		err = gz.Close()
	}
	cm.pool.Put(gz)
	if err != nil {
		cm.stats.RecordRequest(int64(len(body)), int64(len(body)), false)
		_, _ = w.Write(body)
		return
	}

	w.Header().Set("Content-Encoding", "gzip")
	w.Header().Add("Vary", "Accept-Encoding")
	w.Header().Del("Content-Length")
	cm.stats.RecordRequest(int64(len(body)), int64(out.Len()), true)
	_, _ = w.Write(out.Bytes())
}

func clientAcceptsGzip(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(enc), ";")
		if strings.EqualFold(name, "gzip") {
			return true
		}
	}
	return false
}

func (cm *CompressionMiddleware) shouldCompress(contentType string) bool {
	for _, ct := range cm.config.ContentTypes {
		if strings.Contains(contentType, ct) {
			return true
		}
	}
	return false
}

func (cm *CompressionMiddleware) getGzipWriter(w io.Writer) *gzip.Writer {
	gz := cm.pool.Get().(*gzip.Writer)
	gz.Reset(w)
	return gz
}

// bufferedWriter holds the body back until the chain completes; status and
// headers still go to the wrapped writer
type bufferedWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bufferedWriter) Write(data []byte) (int, error) {
	return w.buf.Write(data)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	return w.buf.WriteString(s)
}

// Written reports true once anything is buffered so gin does not render twice
func (w *bufferedWriter) Written() bool {
	return w.buf.Len() > 0 || w.ResponseWriter.Written()
}

// Size reports the uncompressed body size
func (w *bufferedWriter) Size() int {
	if w.buf.Len() > 0 {
		return w.buf.Len()
	}
	return w.ResponseWriter.Size()
}

// Flush is a no-op while buffering
func (w *bufferedWriter) Flush() {}

// CompressionStats tracks compression statistics
type CompressionStats struct {
	TotalRequests      int64
	CompressedRequests int64
	TotalBytes         int64
	CompressedBytes    int64
	mutex              sync.RWMutex
}

// NewCompressionStats creates new compression statistics
func NewCompressionStats() *CompressionStats {
	return &CompressionStats{}
}

// RecordRequest records a request's compression stats
func (cs *CompressionStats) RecordRequest(originalSize, compressedSize int64, compressed bool) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.TotalRequests++
	cs.TotalBytes += originalSize

	if compressed {
		cs.CompressedRequests++
		cs.CompressedBytes += compressedSize
	} else {
		cs.CompressedBytes += originalSize
	}
}

// GetStats returns current compression statistics
func (cs *CompressionStats) GetStats() map[string]interface{} {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	compressionRatio := float64(1)
	if cs.TotalBytes > 0 {
		compressionRatio = float64(cs.CompressedBytes) / float64(cs.TotalBytes)
	}

	return map[string]interface{}{
		"total_requests":      cs.TotalRequests,
		"compressed_requests": cs.CompressedRequests,
		"total_bytes":         cs.TotalBytes,
		"compressed_bytes":    cs.CompressedBytes,
		"compression_ratio":   compressionRatio,
		"compression_savings": 1.0 - compressionRatio,
	}
}

// GetStats returns compression statistics
func (cm *CompressionMiddleware) GetStats() map[string]interface{} {
	return cm.stats.GetStats()
}
