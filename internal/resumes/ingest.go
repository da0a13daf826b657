package resumes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"resumeai-backend/internal/llm"
	"resumeai-backend/internal/rasterizer"
	"resumeai-backend/internal/shared/metrics"
	"resumeai-backend/internal/shared/telemetry"
)

// Stage names a step of the ingest pipeline.
type Stage string

const (
	StageUploading      Stage = "uploading"
	StageConverting     Stage = "converting"
	StageUploadingImage Stage = "uploading_image"
	StagePersisting     Stage = "persisting"
	StageAnalyzing      Stage = "analyzing"
	StageComplete       Stage = "complete"
	StageFailed         Stage = "failed"
)

const (
	msgUploading      = "Uploading the file..."
	msgConverting     = "Converting to image..."
	msgUploadingImage = "Uploading the image..."
	msgPreparing      = "Preparing data..."
	msgAnalyzing      = "Analyzing..."
	msgSaving         = "Saving feedback..."
	msgComplete       = "Analysis complete"

	msgUploadFailed      = "Failed to upload the file"
	msgConversionFailed  = "Failed to convert PDF to image"
	msgImageUploadFailed = "Failed to upload the image"
	msgPersistFailed     = "Failed to save the resume"
	msgAnalysisFailed    = "Failed to analyze the resume"
	msgMalformedFeedback = "Failed to parse feedback"
)

// Status is a progress update emitted while ingesting.
type Status struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
}

// Reporter receives status updates in pipeline order.
type Reporter func(Status)

// IngestInput is a source document plus optional job context.
type IngestInput struct {
	FileName       string
	Data           []byte
	CompanyName    string
	JobTitle       string
	JobDescription string
	// Pages is the declared page count, zero when unknown. Only page 1 is analyzed.
	Pages int
}

// Ingest uploads the document, renders its first page, stores a draft
// record, runs analysis and stores the completed record. It stops at the
// first failing stage and returns an *IngestError. Artifacts written before
// the failure are left in place.
func (s *Service) Ingest(ctx context.Context, in IngestInput, report Reporter) (rec Record, err error) {
	if strings.TrimSpace(in.FileName) == "" {
		return Record{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if report == nil {
		report = func(Status) {}
	}

	start := time.Now()
	metrics.IncIngestStarted()
	if in.Pages > 1 {
		telemetry.Info("ingest.first_page_only", map[string]any{"file_name": in.FileName, "pages": in.Pages})
	}

	emit := func(stage Stage, message string) {
		telemetry.Debug("ingest.stage", map[string]any{"stage": stage, "file_name": in.FileName, "resume_id": rec.ID})
		report(Status{Stage: stage, Message: message})
	}

	defer func() {
		metrics.ObserveIngestDurationMs(float64(time.Since(start).Milliseconds()))
		var ie *IngestError
		if !errors.As(err, &ie) {
			return
		}
		metrics.IncIngestFailed(string(ie.Stage))
		telemetry.Warn("ingest.failed", map[string]any{
			"stage":     ie.Stage,
			"file_name": in.FileName,
			"resume_id": ie.ResumeID,
			"err":       ie.Err,
		})
		report(Status{Stage: StageFailed, Message: ie.Message})
	}()

	emit(StageUploading, msgUploading)
	resumePath, _, _, err := s.Blobs.Save(ctx, in.FileName, bytes.NewReader(in.Data))
	if err != nil {
		return Record{}, stageError(StageUploading, msgUploadFailed, "", ErrUploadFailed, err)
	}

	emit(StageConverting, msgConverting)
	img := s.Rasterizer.Rasterize(ctx, in.FileName, in.Data)
	if !img.OK() {
		cause := img.Err
		if cause == nil {
			cause = rasterizer.ErrEmptyImage
		}
		logOrphaned(StageConverting, resumePath)
		return Record{}, stageError(StageConverting, msgConversionFailed, "", ErrConversionFailed, cause)
	}

	emit(StageUploadingImage, msgUploadingImage)
	imagePath, _, _, err := s.Blobs.Save(ctx, img.Name, bytes.NewReader(img.Image))
	if err != nil {
		logOrphaned(StageUploadingImage, resumePath)
		return Record{}, stageError(StageUploadingImage, msgImageUploadFailed, "", ErrUploadFailed, err)
	}

	emit(StagePersisting, msgPreparing)
	rec = Record{
		ID:             s.newID(),
		ResumePath:     resumePath,
		ImagePath:      imagePath,
		CompanyName:    in.CompanyName,
		JobTitle:       in.JobTitle,
		JobDescription: in.JobDescription,
	}
	if err := s.put(ctx, rec); err != nil {
		logOrphaned(StagePersisting, resumePath, imagePath)
		return Record{}, stageError(StagePersisting, msgPersistFailed, "", ErrPersistFailed, err)
	}

	emit(StageAnalyzing, msgAnalyzing)
	resp, err := s.LLM.Feedback(ctx, imagePath, llm.PrepareInstructions(in.JobTitle, in.JobDescription))
	if err != nil {
		return rec, stageError(StageAnalyzing, msgAnalysisFailed, rec.ID, ErrAnalysisFailed, err)
	}
	if resp == nil {
		return rec, stageError(StageAnalyzing, msgAnalysisFailed, rec.ID, ErrAnalysisFailed, errors.New("empty response"))
	}

	feedback, err := ParseFeedback(resp.Message.Content.Text())
	if err != nil {
		return rec, stageError(StageAnalyzing, msgMalformedFeedback, rec.ID, ErrMalformedFeedback, err)
	}

	emit(StagePersisting, msgSaving)
	complete := rec
	complete.Feedback = feedback
	if err := s.put(ctx, complete); err != nil {
		return rec, stageError(StagePersisting, msgPersistFailed, rec.ID, ErrPersistFailed, err)
	}
	rec = complete

	emit(StageComplete, msgComplete)
	metrics.IncIngestCompleted()
	telemetry.Info("ingest.complete", map[string]any{
		"resume_id":   rec.ID,
		"file_name":   in.FileName,
		"pages":       in.Pages,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return rec, nil
}

// ParseFeedback strips markdown code fences from text and parses the
// remainder as JSON. Payloads that decode as a draft (empty, null, "") are rejected.
func ParseFeedback(text string) (Feedback, error) {
	cleaned := llm.StripCodeFence(text)
	if cleaned == "" {
		return nil, errors.New("empty feedback text")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(cleaned)); err != nil {
		return nil, fmt.Errorf("parse feedback: %w", err)
	}
	switch buf.String() {
	case "null":
		return nil, errors.New("feedback is null")
	case `""`:
		return nil, errors.New("feedback is an empty string")
	}
	return Feedback(buf.Bytes()), nil
}

func logOrphaned(stage Stage, paths ...string) {
	telemetry.Warn("ingest.orphaned", map[string]any{
		"stage": stage,
		"paths": paths,
	})
}
