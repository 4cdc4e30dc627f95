package chat

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zombor/receipt-chat/internal/receipt"
	"github.com/zombor/receipt-chat/internal/scanning"
)

// ErrScan wraps failures of the text-producing scanner.
var ErrScan = errors.New("an error occurred while processing the image")

// ScanErrorMessage renders a scan failure for display
func ScanErrorMessage(err error) string {
	return "An error occurred while processing the image: " + strings.TrimPrefix(err.Error(), ErrScan.Error()+": ")
}

// IDGenerator generates unique session IDs
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string { return uuid.NewString() }

type systemTime struct{}

func (systemTime) Now() time.Time { return time.Now() }

// Service turns uploaded receipts into chat sessions and answers questions
// about them
type Service struct {
	scanner     scanning.Scanner
	storage     Storage
	sessions    *SessionStore
	extractor   *receipt.Extractor
	engine      *receipt.Engine
	idGenerator IDGenerator
	timeSource  TimeSource
	logger      *zap.Logger
}

// NewService creates a Service with UUID session IDs and the system clock
func NewService(scanner scanning.Scanner, storage Storage, engine *receipt.Engine, logger *zap.Logger) *Service {
	return NewServiceWithDeps(scanner, storage, engine, logger, uuidGenerator{}, systemTime{})
}

// NewServiceWithDeps creates a Service with custom dependencies for testing
func NewServiceWithDeps(scanner scanning.Scanner, storage Storage, engine *receipt.Engine, logger *zap.Logger, idGen IDGenerator, timeSrc TimeSource) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = receipt.NewEngine(nil)
	}
	return &Service{
		scanner:     scanner,
		storage:     storage,
		sessions:    NewSessionStore(),
		extractor:   receipt.NewExtractor(logger),
		engine:      engine,
		idGenerator: idGen,
		timeSource:  timeSrc,
		logger:      logger,
	}
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	spaceRuns           = regexp.MustCompile(`\s+`)
)

// sanitizeFilename keeps letters, digits, spaces, hyphens and underscores
// and truncates long phone-generated names
func sanitizeFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = strings.TrimSpace(spaceRuns.ReplaceAllString(base, "_"))
	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}
	return base + ext
}

// ProcessReceipt stores the upload, scans it into text, extracts the
// receipt record and opens a new chat session for it
func (s *Service) ProcessReceipt(filename string, data []byte, contentType string) (*Session, error) {
	id := s.idGenerator.Generate()

	savedName, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	text, err := s.scanner.ExtractText(data, contentType)
	if err != nil {
		s.logger.Error("Failed to scan receipt",
			zap.String("filename", filename),
			zap.String("content_type", contentType),
			zap.Int("file_size", len(data)),
			zap.Error(err),
		)
		if delErr := s.storage.Delete(savedName); delErr != nil {
			s.logger.Warn("Failed to delete upload", zap.String("filename", savedName), zap.Error(delErr))
		}
		return nil, fmt.Errorf("%w: %w", ErrScan, err)
	}

	session := s.open(id, text)
	session.Filename = savedName
	session.ContentType = contentType
	s.sessions.Put(session)
	return session.clone(), nil
}

// ProcessText opens a session for receipt text that was produced elsewhere
func (s *Service) ProcessText(text string) *Session {
	session := s.open(s.idGenerator.Generate(), text)
	s.sessions.Put(session)
	return session.clone()
}

func (s *Service) open(id, text string) *Session {
	normalized := receipt.Normalize(text)
	rec := s.extractor.Extract(normalized)
	s.logger.Info("Receipt parsed",
		zap.String("session_id", id),
		zap.String("restaurant_name", rec.RestaurantName().String()),
		zap.Int("items", len(rec.Items())),
		zap.String("total", rec.Total().StringFixed(2)),
	)
	return &Session{
		ID:        id,
		Receipt:   rec,
		History:   []Message{},
		CreatedAt: s.timeSource.Now(),
	}
}

// GetSession retrieves a session by ID
func (s *Service) GetSession(id string) (*Session, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, fmt.Errorf("getting session %s: %w", id, err)
	}
	return session, nil
}

// Ask answers a question about the session's receipt and records both
// turns in its history
func (s *Service) Ask(id, question string) (string, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return "", fmt.Errorf("getting session %s: %w", id, err)
	}

	intent := s.engine.Classify(question)
	answer := receipt.Render(intent, session.Receipt)
	s.logger.Debug("Question answered", zap.String("session_id", id), zap.String("intent", string(intent)))

	now := s.timeSource.Now()
	if err := s.sessions.Append(id,
		Message{Role: RoleUser, Content: question, CreatedAt: now},
		Message{Role: RoleAssistant, Content: answer, CreatedAt: now},
	); err != nil {
		return "", fmt.Errorf("recording answer: %w", err)
	}
	return answer, nil
}

// History returns the session's chat messages in order
func (s *Service) History(id string) ([]Message, error) {
	session, err := s.GetSession(id)
	if err != nil {
		return nil, err
	}
	return session.History, nil
}

// GetSessionImage returns the uploaded image of a session
func (s *Service) GetSessionImage(id string) ([]byte, string, error) {
	session, err := s.GetSession(id)
	if err != nil {
		return nil, "", err
	}
	if session.Filename == "" {
		return nil, "", fmt.Errorf("session %s has no image", id)
	}
	data, err := s.storage.Get(session.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting session image: %w", err)
	}
	return data, session.ContentType, nil
}

// DeleteSession ends a session and removes its uploaded image
func (s *Service) DeleteSession(id string) error {
	session, err := s.sessions.Delete(id)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if session.Filename != "" {
		if err := s.storage.Delete(session.Filename); err != nil {
			s.logger.Warn("Failed to delete file", zap.String("filename", session.Filename), zap.Error(err))
		}
	}
	return nil
}
