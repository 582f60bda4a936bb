package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Vector.Type == "" {
		cfg.Vector.Type = "chroma"
	}
	if cfg.Vector.URL == "" {
		cfg.Vector.URL = "http://localhost:8000"
	}
	if cfg.Vector.Collection == "" {
		cfg.Vector.Collection = "company_docs"
	}
	if cfg.Vector.TimeoutSecs == 0 {
		cfg.Vector.TimeoutSecs = 30
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "GROQ_API_KEY"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "llama-3.1-8b-instant"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.1
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1024
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 60
	}
	if cfg.Ingest.MaxChunkSize == 0 {
		cfg.Ingest.MaxChunkSize = 800
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 150
	}
	if cfg.Query.DefaultResultCount == 0 {
		cfg.Query.DefaultResultCount = 4
	}
	if cfg.Query.AllowedResultCounts == nil {
		cfg.Query.AllowedResultCounts = []int{2, 4, 6, 8}
	}
	if cfg.Auth.DatabasePath == "" {
		cfg.Auth.DatabasePath = "/usr/local/var/kotae/data/db/users.db"
	}
	if cfg.Auth.SessionTimeoutSecs == 0 {
		cfg.Auth.SessionTimeoutSecs = 1800
	}
	if cfg.Audit.DatabasePath == "" {
		cfg.Audit.DatabasePath = "/usr/local/var/kotae/data/db/audit.db"
	}
	if cfg.Audit.IndexPath == "" {
		cfg.Audit.IndexPath = "/usr/local/var/kotae/data/indices/audit"
	}
	if cfg.Audit.ResponseMaxChars == 0 {
		cfg.Audit.ResponseMaxChars = 200
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".pdf", ".txt", ".csv", ".xlsx", ".docx"}
	}
}
