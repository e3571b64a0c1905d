package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/keepstackapp/keepstack-server/internal/backup"
	"github.com/keepstackapp/keepstack-server/internal/errors"
)

// maxImportSize caps uploaded export archives at 512 MiB.
const maxImportSize = 512 << 20

// registerBackupRoutes mounts the data portability endpoints. Export is a
// raw chi route because a zip download doesn't fit huma's JSON envelope;
// import returns JSON and goes through huma like everything else.
func (s *Server) registerBackupRoutes() {
	s.router.Get("/api/v1/export", s.handleExport)

	huma.Register(s.api, huma.Operation{
		OperationID:  "import-archive",
		Method:       http.MethodPost,
		Path:         "/api/v1/import",
		Summary:      "Import an export archive",
		Description:  "Restores articles, tags, and highlights from a previously exported zip archive. Existing records are skipped.",
		Tags:         []string{"Backup"},
		Security:     []map[string][]string{{"bearer": {}}},
		MaxBodyBytes: maxImportSize,
	}, s.handleImport)
}

// handleExport streams the user's reading data as a zip archive.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserID(r.Context())
	if err != nil {
		// Browser download links can't set headers; fall back to ?token=.
		if token := bearerToken(r); token != "" {
			userID, err = s.services.Auth.VerifyAccessToken(token)
		}
		if err != nil || userID == "" {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
	}

	filename := fmt.Sprintf("keepstack-export-%s.zip", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	exporter := backup.NewExporter(s.store, "Keepstack", s.logger)
	if _, err := exporter.Export(r.Context(), userID, w); err != nil {
		// Headers are gone already; all we can do is log and cut the stream.
		s.logger.Error("export failed", "user_id", userID, "error", err)
	}
}

// ImportInput carries the uploaded archive bytes.
type ImportInput struct {
	ContentType string `header:"Content-Type"`
	RawBody     []byte
}

// ImportOutput wraps the import summary for Huma.
type ImportOutput struct {
	Body backup.ImportResult
}

func (s *Server) handleImport(ctx context.Context, input *ImportInput) (*ImportOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	if len(input.RawBody) == 0 {
		return nil, errors.Validation("archive body is required")
	}

	importer := backup.NewImporter(s.store, s.logger)
	result, err := importer.Import(ctx, userID, bytes.NewReader(input.RawBody), int64(len(input.RawBody)))
	if err != nil {
		if errors.Is(err, backup.ErrInvalidArchive) || errors.Is(err, backup.ErrInvalidManifest) || errors.Is(err, backup.ErrVersionMismatch) {
			return nil, errors.Validation(err.Error())
		}
		return nil, err
	}

	return &ImportOutput{Body: *result}, nil
}
