package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/tamesu/data/db/documents.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/tamesu/data/indices/bleve"
	}
	if cfg.Storage.SnapshotPath == "" {
		cfg.Storage.SnapshotPath = "/usr/local/var/tamesu/data/indices/vectors.bin"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "auto"
	}
	if cfg.Embedding.Remote.BaseURL == "" {
		cfg.Embedding.Remote.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedding.Remote.APIKeyEnv == "" {
		cfg.Embedding.Remote.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedding.Remote.Model == "" {
		cfg.Embedding.Remote.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Remote.TimeoutSeconds == 0 {
		cfg.Embedding.Remote.TimeoutSeconds = 30
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/tamesu/data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = "local"
	}
	if cfg.Index.URL == "" {
		cfg.Index.URL = "http://localhost:8000"
	}
	if cfg.Index.Collection == "" {
		cfg.Index.Collection = "qa_agent"
	}
	if cfg.Retrieval.ChunkSize == 0 {
		cfg.Retrieval.ChunkSize = 800
	}
	if cfg.Retrieval.ChunkOverlap == 0 {
		cfg.Retrieval.ChunkOverlap = 100
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 6
	}
	if cfg.Generation.BaseURL == "" {
		cfg.Generation.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Generation.APIKeyEnv == "" {
		cfg.Generation.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "gpt-3.5-turbo"
	}
	if cfg.Generation.FallbackPath == "" {
		cfg.Generation.FallbackPath = "./testcases.json"
	}
	if cfg.Generation.TimeoutSeconds == 0 {
		cfg.Generation.TimeoutSeconds = 120
	}
	if cfg.Ingest.UploadDir == "" {
		cfg.Ingest.UploadDir = "./uploads"
	}
	if cfg.Ingest.Extensions == nil {
		cfg.Ingest.Extensions = []string{".md", ".txt", ".json", ".html", ".htm", ".pdf", ".docx", ".xlsx", ".pptx", ".odp", ".ods"}
	}
}
