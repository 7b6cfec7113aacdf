package services

import (
	"context"
	"errors"
	"fmt"

	"casahub_go_backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrResumeNotFound = errors.New("resume not found")

// ResumeStore reads and removes persisted AgentResume rows, always scoped to
// the owning user.
type ResumeStore interface {
	ResumeByID(userID uuid.UUID, id uint) (*models.AgentResume, error)
	DeleteResume(userID uuid.UUID, id uint) error
}

// AgentResumeService serves the PDF artifacts the agent-resume tool stored in
// cloud storage.
type AgentResumeService struct {
	store   ResumeStore
	storage CloudStorageManager
	bucket  string
}

func NewAgentResumeService(store ResumeStore, storage CloudStorageManager, bucket string) *AgentResumeService {
	return &AgentResumeService{
		store:   store,
		storage: storage,
		bucket:  bucket,
	}
}

// ResumePDF returns the rendered PDF bytes for one of the caller's resumes.
func (s *AgentResumeService) ResumePDF(ctx context.Context, userID uuid.UUID, id uint) ([]byte, error) {
	resume, err := s.store.ResumeByID(userID, id)
	if err != nil {
		return nil, err
	}

	data, err := s.storage.DownloadFile(ctx, s.bucket, resume.PDFObjectName)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch resume PDF: %w", err)
	}
	return data, nil
}

// DeleteResume removes the stored PDF and then the row. The object goes
// first: if the object delete fails the row survives and the caller can
// retry, never the other way around.
func (s *AgentResumeService) DeleteResume(ctx context.Context, userID uuid.UUID, id uint) error {
	resume, err := s.store.ResumeByID(userID, id)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteFile(ctx, s.bucket, resume.PDFObjectName); err != nil {
		return fmt.Errorf("failed to delete resume PDF: %w", err)
	}
	return s.store.DeleteResume(userID, id)
}

type DefaultResumeStore struct {
	db *gorm.DB
}

func NewResumeStore(db *gorm.DB) ResumeStore {
	return &DefaultResumeStore{db: db}
}

func (s *DefaultResumeStore) ResumeByID(userID uuid.UUID, id uint) (*models.AgentResume, error) {
	var resume models.AgentResume
	err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&resume).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResumeNotFound
		}
		return nil, err
	}
	return &resume, nil
}

func (s *DefaultResumeStore) DeleteResume(userID uuid.UUID, id uint) error {
	return s.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.AgentResume{}).Error
}
