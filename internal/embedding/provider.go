package embedding

import (
	"os"

	"go.uber.org/zap"
)

// Kind identifies which embedding provider variant is active.
type Kind string

const (
	KindRemote   Kind = "remote"
	KindLocal    Kind = "local"
	KindMock     Kind = "mock"
	KindDisabled Kind = "disabled"
)

// SelectConfig configures provider selection.
type SelectConfig struct {
	Provider   string
	Remote     RemoteConfig
	ModelPath  string
	Dimensions int
	MaxTokens  int
	CacheSize  int
}

// Select chooses the embedding provider once at startup. It never fails: a
// provider that cannot be constructed downgrades to the next candidate,
// ending at disabled (nil embedder). Callers branch on the returned Kind,
// never on the concrete type.
func Select(cfg SelectConfig, logger *zap.Logger) (Embedder, Kind) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Provider {
	case "remote":
		e, err := NewRemoteEmbedder(cfg.Remote)
		if err != nil {
			logger.Warn("remote embedder unavailable, embeddings disabled", zap.Error(err))
			return nil, KindDisabled
		}
		return e, KindRemote
	case "local":
		e, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
		if err != nil {
			logger.Warn("local embedder unavailable, embeddings disabled", zap.Error(err))
			return nil, KindDisabled
		}
		return e, KindLocal
	case "mock":
		return NewMockEmbedder(cfg.Dimensions), KindMock
	case "disabled":
		return nil, KindDisabled
	}

	// auto: remote when the credential is set, then local, then disabled
	if os.Getenv(cfg.Remote.APIKeyEnv) != "" {
		e, err := NewRemoteEmbedder(cfg.Remote)
		if err == nil {
			return e, KindRemote
		}
		logger.Warn("remote embedder unavailable", zap.Error(err))
	}
	e, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
	if err == nil {
		return e, KindLocal
	}
	logger.Debug("local embedder unavailable", zap.Error(err))
	logger.Warn("no embedding provider available, similarity retrieval disabled")
	return nil, KindDisabled
}
