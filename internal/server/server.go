package server

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/scribe/internal/agent"
	"github.com/agenthands/scribe/internal/config"
	"github.com/agenthands/scribe/internal/intel"
	"github.com/agenthands/scribe/internal/llm"
	"github.com/agenthands/scribe/internal/session"
	"github.com/agenthands/scribe/internal/store"
)

type Server struct {
	Config   *config.Config
	Registry *agent.Registry
	Store    *store.Store
	Service  *agent.Service
	Intel    *intel.Engine
}

func NewServer() *Server {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override config with env vars if present
	if envProvider := os.Getenv("LLM_PROVIDER"); envProvider != "" {
		cfg.LLM.Provider = envProvider
	}
	if envModel := os.Getenv("LLM_MODEL"); envModel != "" {
		cfg.LLM.Model = envModel
	}
	if envAPIKey := os.Getenv("LLM_API_KEY"); envAPIKey != "" {
		cfg.LLM.APIKey = envAPIKey
	}
	if envBaseURL := os.Getenv("LLM_BASE_URL"); envBaseURL != "" {
		cfg.LLM.BaseURL = envBaseURL
	}
	if envDB := os.Getenv("SCRIBE_DB_PATH"); envDB != "" {
		cfg.Storage.Path = envDB
	}

	// Default to Ollama if provider is empty
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "ollama"
		cfg.LLM.Model = "gpt-oss:latest"
		cfg.LLM.BaseURL = "http://localhost:11434"
	}

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Failed to open entry store: %v", err)
	}

	llmClient, err := llm.NewClient(context.Background(), cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	registry := agent.NewRegistry(cfg.Agents)
	svc := agent.NewService(registry, session.NewManager(), st, llmClient)

	return &Server{
		Config:   cfg,
		Registry: registry,
		Store:    st,
		Service:  svc,
		Intel:    intel.NewEngine(st, llmClient),
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.POST("/api/chat", s.Chat)

	r.GET("/api/entries", s.GetEntries)
	r.POST("/api/entries", s.AddEntry)
	r.PUT("/api/entries/:id", s.UpdateEntry)
	r.DELETE("/api/entries/:id", s.DeleteEntry)

	r.POST("/api/sync/:agent", s.Sync)

	r.GET("/api/agents", s.GetAgents)

	r.POST("/api/reports/:agent/:type", s.GenerateReport)
	r.GET("/api/reports/:agent", s.GetReports)
	r.GET("/api/summary/:agent", s.GetCategorySummary)

	return r
}
