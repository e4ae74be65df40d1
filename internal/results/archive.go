package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	archiveTimestampLayoutConstant     = "20060102_150405"
	summaryFileNameTemplateConstant    = "summary_%s.json"
	detailFileNameTemplateConstant     = "pr_details_%s.json"
	outputDirectoryRequiredMessage     = "output directory must be provided"
	fileSystemRequiredMessageConstant  = "file system must be provided"
	clockRequiredMessageConstant       = "clock must be provided"
	directoryCreationErrorTemplate     = "unable to create output directory %s: %w"
	documentEncodingErrorTemplate      = "unable to encode %s document: %w"
	documentWriteErrorTemplateConstant = "unable to write %s: %w"
	summaryDocumentNameConstant        = "summary"
	detailDocumentNameConstant         = "pull request detail"
	jsonIndentConstant                 = "  "
	outputDirectoryPermissionsConstant = os.FileMode(0o755)
	archiveFilePermissionsConstant     = os.FileMode(0o644)
)

// Clock supplies the wall-clock instant used to stamp archive file names.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the operating system clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FileSystem describes the write operations the archiver performs.
type FileSystem interface {
	MkdirAll(directoryPath string, permissions os.FileMode) error
	WriteFile(filePath string, fileContent []byte, permissions os.FileMode) error
}

// OperatingSystemFileSystem writes through the os package.
type OperatingSystemFileSystem struct{}

// MkdirAll creates the directory path along with any missing parents.
func (OperatingSystemFileSystem) MkdirAll(directoryPath string, permissions os.FileMode) error {
	return os.MkdirAll(directoryPath, permissions)
}

// WriteFile stores the file content at the given path.
func (OperatingSystemFileSystem) WriteFile(filePath string, fileContent []byte, permissions os.FileMode) error {
	return os.WriteFile(filePath, fileContent, permissions)
}

// RunMetadata identifies a single audit run inside archived documents.
type RunMetadata struct {
	RunID       string `json:"run_id"`
	GeneratedAt string `json:"generated_at"`
}

// RunArtifacts carries the documents one audit run produces.
type RunArtifacts struct {
	Metadata RunMetadata
	Summary  any
	Details  any
}

// StoredPaths reports where an archived run was written.
type StoredPaths struct {
	SummaryPath string
	DetailPath  string
}

type summaryEnvelope struct {
	RunMetadata
	Summary any `json:"summary"`
}

type detailEnvelope struct {
	RunMetadata
	PullRequests any `json:"pull_requests"`
}

// Archiver writes audit run artifacts into the output directory.
type Archiver struct {
	fileSystem      FileSystem
	clock           Clock
	outputDirectory string
}

// NewArchiver validates the collaborators and builds an Archiver.
func NewArchiver(fileSystem FileSystem, clock Clock, outputDirectory string) (*Archiver, error) {
	if fileSystem == nil {
		return nil, errors.New(fileSystemRequiredMessageConstant)
	}
	if clock == nil {
		return nil, errors.New(clockRequiredMessageConstant)
	}
	if len(outputDirectory) == 0 {
		return nil, errors.New(outputDirectoryRequiredMessage)
	}
	return &Archiver{fileSystem: fileSystem, clock: clock, outputDirectory: outputDirectory}, nil
}

// Store writes the summary and pull request detail documents using one
// shared timestamp so the pair is recognizable as a single run.
func (archiver *Archiver) Store(artifacts RunArtifacts) (StoredPaths, error) {
	if directoryError := archiver.fileSystem.MkdirAll(archiver.outputDirectory, outputDirectoryPermissionsConstant); directoryError != nil {
		return StoredPaths{}, fmt.Errorf(directoryCreationErrorTemplate, archiver.outputDirectory, directoryError)
	}

	archiveTimestamp := archiver.clock.Now().Format(archiveTimestampLayoutConstant)
	summaryPath := filepath.Join(archiver.outputDirectory, fmt.Sprintf(summaryFileNameTemplateConstant, archiveTimestamp))
	detailPath := filepath.Join(archiver.outputDirectory, fmt.Sprintf(detailFileNameTemplateConstant, archiveTimestamp))

	summaryDocument := summaryEnvelope{RunMetadata: artifacts.Metadata, Summary: artifacts.Summary}
	if writeError := archiver.writeDocument(summaryPath, summaryDocumentNameConstant, summaryDocument); writeError != nil {
		return StoredPaths{}, writeError
	}

	detailDocument := detailEnvelope{RunMetadata: artifacts.Metadata, PullRequests: artifacts.Details}
	if writeError := archiver.writeDocument(detailPath, detailDocumentNameConstant, detailDocument); writeError != nil {
		return StoredPaths{}, writeError
	}

	return StoredPaths{SummaryPath: summaryPath, DetailPath: detailPath}, nil
}

func (archiver *Archiver) writeDocument(documentPath string, documentName string, document any) error {
	encodedDocument, encodeError := json.MarshalIndent(document, "", jsonIndentConstant)
	if encodeError != nil {
		return fmt.Errorf(documentEncodingErrorTemplate, documentName, encodeError)
	}
	if writeError := archiver.fileSystem.WriteFile(documentPath, encodedDocument, archiveFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(documentWriteErrorTemplateConstant, documentPath, writeError)
	}
	return nil
}
