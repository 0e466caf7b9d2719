// Package hashutil computes content etags for tool lists.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"dcl/internal/domain"
)

// ToolETag returns an etag for an ordered tool list, or "" when the list
// cannot be encoded. Failures are logged.
func ToolETag(logger *zap.Logger, tools []domain.ToolDefinition) string {
	return hashWithLogger(logger, "tool", func() (string, error) {
		return hashJSON(tools)
	})
}

func hashJSON(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func hashWithLogger(logger *zap.Logger, label string, fn func() (string, error)) string {
	etag, err := fn()
	if err != nil {
		if logger != nil {
			logger.Warn(fmt.Sprintf("%s hash failed", label), zap.Error(err))
		}
		return ""
	}
	return etag
}
