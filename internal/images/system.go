// Package images runs the upload pipeline: temporary store, classify, then
// promote or discard. It also classifies images that are already stored.
package images

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/herbarium/internal/classifier"
	"github.com/JaimeStill/herbarium/internal/objects"
	"github.com/JaimeStill/herbarium/internal/validation"
	"github.com/JaimeStill/herbarium/pkg/transport"
)

// System defines the image pipeline operations.
type System interface {
	Handler() *Handler

	// Upload stores, classifies, and promotes an image. Nothing reaches the
	// permanent area unless the image is classified as a plant, and a
	// rejected or failed classification discards the temporary object.
	Upload(ctx context.Context, cmd UploadCommand) (*UploadResult, error)

	// Identify classifies an image that already exists in the object store.
	Identify(ctx context.Context, cmd IdentifyCommand) (*classifier.Result, error)
}

type system struct {
	objects    objects.System
	classifier classifier.System
	validator  *validation.Validator
	logger     *slog.Logger
}

// New creates the image pipeline.
func New(
	objs objects.System,
	cls classifier.System,
	validator *validation.Validator,
	logger *slog.Logger,
) System {
	return &system{
		objects:    objs,
		classifier: cls,
		validator:  validator,
		logger:     logger.With("system", "images"),
	}
}

func (s *system) Handler() *Handler {
	limits := s.validator.Limits()
	return NewHandler(s, s.logger, limits.MaxFileSizeBytes())
}

func (s *system) Upload(ctx context.Context, cmd UploadCommand) (*UploadResult, error) {
	if err := s.validateUpload(cmd); err != nil {
		return nil, err
	}

	// Cleanup must run even when the client goes away mid-pipeline.
	ctx = context.WithoutCancel(ctx)

	temp, err := s.objects.PutTemporary(ctx, cmd.Data, cmd.FileName, cmd.ContentType)
	if err != nil {
		return nil, storageFailure("put temporary", err)
	}
	s.logger.Info("image stored", "object", temp.Name, "size", len(cmd.Data))

	readURL := s.objects.Present(ctx, temp.URL)
	if !s.classifier.ValidateImage(readURL) {
		s.objects.Discard(ctx, temp.URL, StageInvalidReference)
		return nil, transport.New(
			transport.Storage, "put temporary", transport.Schema,
			fmt.Errorf("%w: %q", ErrInvalidReference, readURL),
		)
	}

	result, err := s.classifier.Classify(ctx, readURL, cmd.ContextInfo)
	if err != nil {
		s.objects.Discard(ctx, temp.URL, StageClassifyFailed)
		return nil, fmt.Errorf("classify image: %w", err)
	}

	if !result.IsPlant {
		s.objects.Discard(ctx, temp.URL, StageNotAPlant)
		s.logger.Info("image rejected", "object", temp.Name, "confidence", result.Confidence)
		return nil, &NotAPlantError{Reason: result.Reason, Confidence: result.Confidence}
	}

	promotion, err := s.objects.Promote(ctx, temp.URL)
	if err != nil {
		return nil, storageFailure("promote", err)
	}

	s.logger.Info(
		"image accepted",
		"object", promotion.Permanent.Name,
		"confidence", result.Confidence,
		"candidates", len(result.Candidates),
	)

	return &UploadResult{
		ImagePath:   promotion.Permanent.URL,
		ImageURL:    s.objects.Present(ctx, promotion.Permanent.URL),
		FileName:    cmd.FileName,
		ContentType: cmd.ContentType,
		FileSize:    int64(len(cmd.Data)),
		IdentificationResult: Identification{
			IsPlant:    result.IsPlant,
			Confidence: result.Confidence,
			Candidates: result.Candidates,
		},
	}, nil
}

func (s *system) Identify(ctx context.Context, cmd IdentifyCommand) (*classifier.Result, error) {
	limits := s.validator.Limits()
	if err := s.validator.URL("imagePath", cmd.ImagePath); err != nil {
		return nil, err
	}
	if err := s.validator.Optional("contextInfo", cmd.ContextInfo, limits.ContextMaxLength); err != nil {
		return nil, err
	}

	exists, err := s.objects.Exists(ctx, cmd.ImagePath)
	if err != nil {
		return nil, storageFailure("exists", err)
	}
	if !exists {
		return nil, ErrImageNotFound
	}

	var hint string
	if cmd.ContextInfo != nil {
		hint = *cmd.ContextInfo
	}

	result, err := s.classifier.Classify(ctx, s.objects.Present(ctx, cmd.ImagePath), hint)
	if err != nil {
		return nil, fmt.Errorf("classify image: %w", err)
	}

	s.logger.Info("image identified", "is_plant", result.IsPlant, "confidence", result.Confidence)
	return result, nil
}

func (s *system) validateUpload(cmd UploadCommand) error {
	if err := s.validator.ContentType(cmd.ContentType); err != nil {
		return err
	}
	if err := s.validator.FileSize(int64(len(cmd.Data))); err != nil {
		return err
	}
	return s.validator.Optional("contextInfo", &cmd.ContextInfo, s.validator.Limits().ContextMaxLength)
}

// storageFailure guarantees that an object store fault surfaces as a storage
// error even when the provider could not classify it.
func storageFailure(op string, err error) error {
	if transport.KindOf(err) != transport.Unknown {
		return err
	}
	return transport.New(transport.Storage, op, transport.Upstream, err)
}
