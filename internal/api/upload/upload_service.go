package upload

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hongfa/admin-api/internal/types"
)

// UploadedFile describes a stored file as returned to the client.
type UploadedFile struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	URL          string `json:"url"`
	Size         int64  `json:"size"`
	Mimetype     string `json:"mimetype"`
}

// Kind selects the extension allow-list for an upload.
type Kind int

const (
	KindAny Kind = iota
	KindImage
)

var allowedExtensions = map[Kind]map[string]bool{
	KindAny: {
		".jpeg": true, ".jpg": true, ".png": true, ".gif": true, ".webp": true,
		".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
		".txt": true, ".csv": true, ".zip": true,
	},
	KindImage: {
		".jpeg": true, ".jpg": true, ".png": true, ".gif": true, ".webp": true,
	},
}

var _ Service = (*ServiceImpl)(nil)

// FileInfo describes a stored file for the management endpoints.
type FileInfo struct {
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// Service stores uploaded files under the configured directory with
// collision-free names.
type Service interface {
	Save(fh *multipart.FileHeader, kind Kind) (*UploadedFile, error)
	// List returns every stored file, newest first.
	List() ([]FileInfo, error)
	// Info returns metadata for one stored file. Returns types.ErrNotFound
	// when the file does not exist and types.ErrValidation for filenames
	// that are not plain names.
	Info(filename string) (*FileInfo, error)
	// Delete removes one stored file, with the same error contract as Info.
	Delete(filename string) error
}

type ServiceImpl struct {
	logger      *slog.Logger
	dir         string
	maxFileSize int64
}

func NewService(dir string, maxFileSize int64, logger *slog.Logger) (*ServiceImpl, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads directory: %w", err)
	}
	return &ServiceImpl{
		logger:      logger,
		dir:         dir,
		maxFileSize: maxFileSize,
	}, nil
}

// Save validates the file against the size cap and extension allow-list, then
// writes it under a random name so originals can never collide or traverse
// paths.
func (s *ServiceImpl) Save(fh *multipart.FileHeader, kind Kind) (*UploadedFile, error) {
	if fh.Size > s.maxFileSize {
		return nil, fmt.Errorf("%w: file %q exceeds the %d byte limit", types.ErrValidation, fh.Filename, s.maxFileSize)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExtensions[kind][ext] {
		return nil, fmt.Errorf("%w: file type %q not allowed", types.ErrValidation, ext)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening uploaded file: %w", err)
	}
	defer src.Close()

	filename := uuid.NewString() + ext
	dstPath := filepath.Join(s.dir, filename)
	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(dstPath)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	s.logger.Info("File stored",
		slog.String("filename", filename),
		slog.String("originalName", fh.Filename),
		slog.Int64("size", size),
	)
	return &UploadedFile{
		Filename:     filename,
		OriginalName: fh.Filename,
		URL:          "/uploads/" + filename,
		Size:         size,
		Mimetype:     fh.Header.Get("Content-Type"),
	}, nil
}

// resolvePath rejects anything that is not a plain filename so the management
// endpoints can never reach outside the uploads directory.
func (s *ServiceImpl) resolvePath(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		return "", fmt.Errorf("%w: invalid filename %q", types.ErrValidation, filename)
	}
	return filepath.Join(s.dir, filename), nil
}

func (s *ServiceImpl) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading uploads directory: %w", err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("reading file info: %w", err)
		}
		files = append(files, FileInfo{
			Filename:   entry.Name(),
			URL:        "/uploads/" + entry.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].ModifiedAt.After(files[j].ModifiedAt)
	})
	return files, nil
}

func (s *ServiceImpl) Info(filename string) (*FileInfo, error) {
	path, err := s.resolvePath(filename)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("reading file info: %w", err)
	}
	return &FileInfo{
		Filename:   filename,
		URL:        "/uploads/" + filename,
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
	}, nil
}

func (s *ServiceImpl) Delete(filename string) error {
	path, err := s.resolvePath(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return types.ErrNotFound
		}
		return fmt.Errorf("deleting file: %w", err)
	}
	s.logger.Info("File deleted", slog.String("filename", filename))
	return nil
}
