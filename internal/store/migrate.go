package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/keepstackapp/keepstack-server/internal/domain"
)

// MigrateLegacyBinaryContent repairs article records written by early clients
// that stored the raw base64 document in the content field instead of the
// file data field. Matching records get their payload moved to FileData and
// the content replaced with the placeholder markup readers expect.
//
// Returns how many records were rewritten.
func (s *Store) MigrateLegacyBinaryContent(ctx context.Context, userID string) (int, error) {
	articles, err := s.ListAllArticles(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load articles for migration: %w", err)
	}

	migrated := 0
	for _, article := range articles {
		if !looksLikeLegacyBinary(string(article.Type), article.FileData, article.Content) {
			continue
		}

		article.FileData = article.Content
		article.Content = domain.BinaryPlaceholder

		count, err := s.UpdateArticle(ctx, article)
		if err != nil {
			return migrated, fmt.Errorf("migrate article %s: %w", article.ID, err)
		}
		migrated += count
	}

	if s.logger != nil && migrated > 0 {
		s.logger.Info("legacy binary content migrated", "user_id", userID, "count", migrated)
	}

	return migrated, nil
}

// looksLikeLegacyBinary reports whether a record matches the legacy layout:
// a binary article type, no file data, and a content field that is a long
// run of base64 rather than markup.
func looksLikeLegacyBinary(articleType, fileData, content string) bool {
	if articleType != "pdf" && articleType != "epub" {
		return false
	}
	if fileData != "" {
		return false
	}
	if len(content) < 512 {
		return false
	}
	if strings.HasPrefix(strings.TrimSpace(content), "<") {
		return false // Already markup.
	}
	return isBase64(content)
}

// isBase64 reports whether s contains only standard base64 alphabet
// characters, with padding allowed at the end.
func isBase64(s string) bool {
	trimmed := strings.TrimRight(s, "=")
	for _, r := range trimmed {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '+' || r == '/':
		default:
			return false
		}
	}
	return true
}
