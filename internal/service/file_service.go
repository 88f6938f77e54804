package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/woodline/crm-api/internal/auth"
	"github.com/woodline/crm-api/internal/domain"
	"github.com/woodline/crm-api/internal/mapper"
	"github.com/woodline/crm-api/internal/repository"
	"github.com/woodline/crm-api/internal/storage"
)

// FileService handles order attachments: drawings, measurement sheets,
// signed contracts. Bytes live in storage, metadata in the database.
type FileService struct {
	fileRepo  *repository.FileRepository
	orderRepo *repository.OrderRepository
	storage   storage.Storage
	logger    *zap.Logger
}

func NewFileService(
	fileRepo *repository.FileRepository,
	orderRepo *repository.OrderRepository,
	storage storage.Storage,
	logger *zap.Logger,
) *FileService {
	return &FileService{
		fileRepo:  fileRepo,
		orderRepo: orderRepo,
		storage:   storage,
		logger:    logger,
	}
}

// UploadToOrder uploads a file and attaches it to an order.
func (s *FileService) UploadToOrder(ctx context.Context, orderID uint, filename, contentType string, data io.Reader) (*domain.FileDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !userCtx.CanManageOrders() {
		return nil, ErrPermissionDenied
	}

	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to verify order: %w", err)
	}

	storagePath, size, err := s.storage.Upload(ctx, filename, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	file := &domain.File{
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		StoragePath: storagePath,
		OrderID:     &orderID,
		UploadedBy:  userCtx.UserID,
	}
	if err := s.fileRepo.Create(ctx, file); err != nil {
		// Best-effort cleanup so the blob does not orphan.
		if delErr := s.storage.Delete(ctx, storagePath); delErr != nil {
			s.logger.Warn("failed to cleanup file from storage after DB error",
				zap.Error(delErr),
				zap.String("storage_path", storagePath))
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	s.logger.Info("file uploaded",
		zap.String("file_id", file.ID.String()),
		zap.Uint("order_id", orderID),
		zap.String("uploaded_by", userCtx.UserID))

	dto := mapper.ToFileDTO(file)
	return &dto, nil
}

// ListByOrder returns an order's attachments.
func (s *FileService) ListByOrder(ctx context.Context, orderID uint) ([]domain.FileDTO, error) {
	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to verify order: %w", err)
	}
	files, err := s.fileRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order files: %w", err)
	}
	dtos := make([]domain.FileDTO, len(files))
	for i := range files {
		dtos[i] = mapper.ToFileDTO(&files[i])
	}
	return dtos, nil
}

// GetByID retrieves a file's metadata.
func (s *FileService) GetByID(ctx context.Context, id uuid.UUID) (*domain.FileDTO, error) {
	file, err := s.fileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: file %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	dto := mapper.ToFileDTO(file)
	return &dto, nil
}

// Download retrieves a file's content.
// Returns: reader, filename, content-type, error.
func (s *FileService) Download(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, string, error) {
	file, err := s.fileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", fmt.Errorf("%w: file %s", ErrNotFound, id)
		}
		return nil, "", "", fmt.Errorf("failed to get file: %w", err)
	}

	reader, err := s.storage.Download(ctx, file.StoragePath)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to download file: %w", err)
	}
	return reader, file.Filename, file.ContentType, nil
}

// Delete removes a file from both storage and database.
func (s *FileService) Delete(ctx context.Context, id uuid.UUID) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	if !userCtx.CanManageOrders() {
		return ErrPermissionDenied
	}

	file, err := s.fileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: file %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to get file: %w", err)
	}

	// Storage failures are logged, not fatal; the metadata row is the
	// source of truth for what exists.
	if err := s.storage.Delete(ctx, file.StoragePath); err != nil {
		s.logger.Warn("failed to delete file from storage",
			zap.Error(err),
			zap.String("storage_path", file.StoragePath),
			zap.String("file_id", id.String()))
	}

	if err := s.fileRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}
	return nil
}
