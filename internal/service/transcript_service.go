package service

import (
	"context"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/grade-ledger-api/internal/models"
	"github.com/noah-isme/grade-ledger-api/internal/repository"
	appErrors "github.com/noah-isme/grade-ledger-api/pkg/errors"
	"github.com/noah-isme/grade-ledger-api/pkg/export"
	"github.com/noah-isme/grade-ledger-api/pkg/storage"
)

type transcriptStorage interface {
	Save(relPath string, data []byte) (string, error)
	Open(relPath string) (*os.File, error)
}

type linkSigner interface {
	Generate(id, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (storage.SignedLink, error)
}

// TranscriptConfig tunes transcript links.
type TranscriptConfig struct {
	APIPrefix string
}

// TranscriptDownload is an opened transcript ready to stream.
type TranscriptDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	Size        int64
}

var transcriptHeaders = []string{"ID", "Course", "Course Name", "Semester", "Grade", "Status", "Finalized At", "Teacher Token"}

// TranscriptService renders a student's grade records to CSV or PDF and
// hands out expiring signed links to the stored file.
type TranscriptService struct {
	ledger  *Ledger
	storage transcriptStorage
	signer  linkSigner
	cfg     TranscriptConfig
	logger  *zap.Logger
}

// NewTranscriptService constructs a TranscriptService.
func NewTranscriptService(ledger *Ledger, store transcriptStorage, signer linkSigner, cfg TranscriptConfig, logger *zap.Logger) *TranscriptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptService{ledger: ledger, storage: store, signer: signer, cfg: cfg, logger: logger}
}

// Generate renders the student's transcript in the requested format.
func (s *TranscriptService) Generate(ctx context.Context, caller, student string, format export.Format) (*models.TranscriptExport, error) {
	renderer, err := export.ForFormat(export.Format(strings.ToLower(string(format))))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf")
	}

	var dataset export.Dataset
	err = s.ledger.Read(func(st *repository.LedgerState) error {
		if !hasAccess(st, student, caller) {
			return appErrors.Clone(appErrors.ErrForbidden, "no access to this student's grades")
		}
		dataset = transcriptDataset(st, student)
		return nil
	})
	if err != nil {
		return nil, err
	}

	data, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript")
	}
	id := uuid.NewString()
	rel, err := s.storage.Save(path.Join(sanitizeSegment(student), id+"."+renderer.Extension()), data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store transcript")
	}
	token, expiresAt, err := s.signer.Generate(id, rel)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign transcript link")
	}

	s.logger.Info("transcript generated", zap.String("id", id), zap.String("student", student), zap.String("format", renderer.Extension()), zap.String("caller", caller))
	return &models.TranscriptExport{
		ID:        id,
		Student:   student,
		Format:    renderer.Extension(),
		Records:   len(dataset.Rows),
		Token:     token,
		URL:       strings.TrimRight(s.cfg.APIPrefix, "/") + "/transcripts/" + token,
		ExpiresAt: expiresAt,
	}, nil
}

// Open resolves a signed token to the stored transcript.
func (s *TranscriptService) Open(token string) (*TranscriptDownload, error) {
	link, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "transcript link invalid or expired")
	}
	file, err := s.storage.Open(link.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "transcript not found")
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat transcript")
	}
	contentType := "text/csv"
	if path.Ext(link.Path) == ".pdf" {
		contentType = "application/pdf"
	}
	return &TranscriptDownload{File: file, Filename: path.Base(link.Path), ContentType: contentType, Size: info.Size()}, nil
}

func transcriptDataset(st *repository.LedgerState, student string) export.Dataset {
	ids := st.Grades.IDsByStudent(student)
	rows := make([]map[string]string, 0, len(ids))
	finalized := 0
	for _, id := range ids {
		rec, _ := st.Grades.Get(id)
		finalizedAt := ""
		if rec.FinalizedAt != nil {
			finalizedAt = rec.FinalizedAt.UTC().Format(time.RFC3339)
			finalized++
		}
		rows = append(rows, map[string]string{
			"ID":            strconv.FormatUint(rec.ID, 10),
			"Course":        rec.CourseCode,
			"Course Name":   st.Courses.Name(rec.CourseCode),
			"Semester":      rec.Semester,
			"Grade":         strconv.Itoa(rec.Grade),
			"Status":        rec.Status.Text(),
			"Finalized At":  finalizedAt,
			"Teacher Token": rec.Teacher.Token,
		})
	}
	return export.Dataset{
		Title:   "Grade transcript",
		Headers: transcriptHeaders,
		Rows:    rows,
		Notes: []string{
			fmt.Sprintf("Student: %s", student),
			fmt.Sprintf("Records: %d (%d finalized) as of ledger sequence %d", len(rows), finalized, st.Sequence()),
		},
	}
}

func sanitizeSegment(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
