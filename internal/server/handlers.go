package server

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/scribe/internal/entry"
	"github.com/agenthands/scribe/internal/intel"
	"github.com/agenthands/scribe/internal/store"
	sheetsync "github.com/agenthands/scribe/internal/sync"
)

// respondError maps the error taxonomy onto HTTP statuses: validation
// failures are 400, missing entries 404, everything else 500.
func respondError(c *gin.Context, err error) {
	var validation *store.ValidationError
	var content *entry.InvalidContentError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Reason})
	case errors.As(err, &content):
		c.JSON(http.StatusBadRequest, gin.H{"error": content.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
	default:
		log.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type ChatRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	Agent          string `json:"agent" binding:"required"`
	Message        string `json:"message" binding:"required"`
}

func (s *Server) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := s.Service.HandleTurn(c.Request.Context(), req.ConversationID, req.Agent, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) GetEntries(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	entries, err := s.Store.Entries(c.Request.Context(), store.Filter{
		Agent: c.Query("agent"),
		Type:  c.Query("type"),
		Limit: limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

type AddEntryRequest struct {
	Agent   string   `json:"agent" binding:"required"`
	Text    string   `json:"text" binding:"required"`
	Subject string   `json:"subject"`
	Tags    []string `json:"tags"`
}

func (s *Server) AddEntry(c *gin.Context) {
	var req AddEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ag, err := s.Registry.Lookup(req.Agent)
	if err != nil {
		respondError(c, err)
		return
	}

	saved, err := s.Store.AddText(c.Request.Context(), ag.Name, ag.EntryType, req.Subject, req.Tags, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "saved", "uuid": saved.UUID, "id": saved.ID})
}

type UpdateEntryRequest struct {
	Text string `json:"text" binding:"required"`
}

func (s *Server) UpdateEntry(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	var req UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	content, err := entry.FromText(req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := s.Store.Update(c.Request.Context(), id, content); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (s *Server) DeleteEntry(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	if err := s.Store.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) GetAgents(c *gin.Context) {
	agents := make([]gin.H, 0)
	for _, name := range s.Registry.Names() {
		ag, err := s.Registry.Lookup(name)
		if err != nil {
			continue
		}
		agents = append(agents, gin.H{
			"name":       ag.Name,
			"entry_type": ag.EntryType,
			"policy":     ag.Policy,
		})
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

type SyncRequest struct {
	Target string `json:"target"`
	Full   bool   `json:"full"`
}

func (s *Server) Sync(c *gin.Context) {
	ag, err := s.Registry.Lookup(c.Param("agent"))
	if err != nil {
		respondError(c, err)
		return
	}

	// The body is optional; an empty POST does an incremental Google sync.
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ctx := c.Request.Context()
	started := time.Now().UTC()
	metaKey := "last_sync_at_" + ag.Name

	var since *time.Time
	if !req.Full {
		raw, err := s.Store.GetMeta(ctx, metaKey)
		if err != nil {
			respondError(c, err)
			return
		}
		if raw != "" {
			t, err := time.Parse(time.RFC3339Nano, raw)
			if err == nil {
				since = &t
			}
		}
	}

	// Deleted entries are included so the mirror learns about deletions.
	rows, err := s.Store.ChangedSince(ctx, ag.Name, since)
	if err != nil {
		respondError(c, err)
		return
	}

	mirror, cleanup, err := s.openMirror(c, ag.SheetTab, req.Target)
	if err != nil {
		log.Printf("sync: mirror unavailable: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "mirror unavailable"})
		return
	}
	defer cleanup()

	result, syncErr := sheetsync.Sync(ctx, mirror, rows)
	if syncErr != nil && len(result.Failed) == 0 {
		// Failed before touching any row (header or identity fetch).
		log.Printf("sync failed before any row: %v", syncErr)
		c.JSON(http.StatusBadGateway, gin.H{"error": "sync failed"})
		return
	}

	// Only advance the incremental cursor on a clean run; failed rows
	// stay eligible for the next pass.
	if syncErr == nil {
		if err := s.Store.SetMeta(ctx, metaKey, started.Format(time.RFC3339Nano)); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	c.JSON(http.StatusBadGateway, gin.H{
		"error":  "sync finished with failed rows",
		"result": result,
	})
}

// openMirror picks the mirror backend. "local" targets the XLSX workbook;
// anything else goes to Google Sheets.
func (s *Server) openMirror(c *gin.Context, tab, target string) (sheetsync.Mirror, func(), error) {
	ctx := c.Request.Context()

	if target == "local" {
		m, err := sheetsync.NewExcelMirror(s.Config.Sync.WorkbookPath, tab)
		if err != nil {
			return nil, nil, err
		}
		return m, func() { m.Close() }, nil
	}

	client, err := sheetsync.NewGoogleClient(ctx, s.Config.Sync.CredentialsFile, s.Config.Sync.TokenFile)
	if err != nil {
		return nil, nil, err
	}
	m, err := sheetsync.NewGoogleSheetsMirror(ctx, client, s.Config.Sync.SpreadsheetID, tab)
	if err != nil {
		return nil, nil, err
	}
	return m, func() {}, nil
}

func (s *Server) GenerateReport(c *gin.Context) {
	ag, err := s.Registry.Lookup(c.Param("agent"))
	if err != nil {
		respondError(c, err)
		return
	}
	reportType := c.Param("type")

	days := 7
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days"})
			return
		}
		days = n
	}

	ctx := c.Request.Context()
	entries, err := s.Intel.RecentEntries(ctx, ag, time.Duration(days)*24*time.Hour)
	if err != nil {
		respondError(c, err)
		return
	}

	report, err := s.Intel.GenerateReport(ctx, ag, reportType, entries)
	if errors.Is(err, intel.ErrNoEntries) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "no_data",
			"message": "No entries recorded in the requested window.",
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "report": report})
}

func (s *Server) GetReports(c *gin.Context) {
	ag, err := s.Registry.Lookup(c.Param("agent"))
	if err != nil {
		respondError(c, err)
		return
	}

	reports, err := s.Store.Reports(c.Request.Context(), ag.Name, c.Query("type"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "reports": reports})
}

func (s *Server) GetCategorySummary(c *gin.Context) {
	ag, err := s.Registry.Lookup(c.Param("agent"))
	if err != nil {
		respondError(c, err)
		return
	}

	summarize := c.Query("generate") == "true"
	summary, err := s.Intel.CategorySummary(c.Request.Context(), ag, summarize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
