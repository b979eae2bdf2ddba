package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/donorlink/plasma-center/pkg/core/model"
	"github.com/donorlink/plasma-center/pkg/core/scope"
)

// EducationStore defines the database operations for education materials.
type EducationStore interface {
	ListEducationMaterials(ctx context.Context) ([]model.EducationMaterial, error)
	CreateEducationMaterial(ctx context.Context, mat *model.EducationMaterial) error
	UpdateEducationMaterial(ctx context.Context, mat *model.EducationMaterial) error
}

// EducationParams describes a material to create or update.
type EducationParams struct {
	Type  model.EducationMaterialType
	Title string
	Body  string
	URL   string
}

func (p EducationParams) validate() error {
	if !p.Type.Valid() {
		return fmt.Errorf("%w: unknown material type %q", model.ErrValidation, p.Type)
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title is required", model.ErrValidation)
	}
	if p.Body == "" && p.URL == "" {
		return fmt.Errorf("%w: a material needs a body or a url", model.ErrValidation)
	}
	return nil
}

// ListEducationMaterials lists all materials. Education content is visible to
// every authenticated role.
func ListEducationMaterials(ctx context.Context, store EducationStore) ([]model.EducationMaterial, error) {
	materials, err := store.ListEducationMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list education materials: %w", err)
	}
	return materials, nil
}

// CreateEducationMaterial creates a material. Manager-class roles only.
func CreateEducationMaterial(ctx context.Context, store EducationStore, logger *zap.Logger, actor *model.UserProfile, params EducationParams) (*model.EducationMaterial, error) {
	if !scope.CanManageEducation(actor.Role) {
		return nil, fmt.Errorf("%w: role %s may not manage education materials", model.ErrForbidden, actor.Role)
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	now := nowMillis()
	mat := &model.EducationMaterial{
		Type:      params.Type,
		Title:     params.Title,
		Body:      params.Body,
		URL:       params.URL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreateEducationMaterial(ctx, mat); err != nil {
		return nil, fmt.Errorf("failed to create education material: %w", err)
	}

	logger.Info("Education material created",
		zap.String("id", mat.ID),
		zap.String("type", string(mat.Type)),
		zap.String("by", actor.UID))

	return mat, nil
}

// UpdateEducationMaterial replaces a material's content. Manager-class roles
// only.
func UpdateEducationMaterial(ctx context.Context, store EducationStore, logger *zap.Logger, actor *model.UserProfile, id string, params EducationParams) (*model.EducationMaterial, error) {
	if !scope.CanManageEducation(actor.Role) {
		return nil, fmt.Errorf("%w: role %s may not manage education materials", model.ErrForbidden, actor.Role)
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	mat := &model.EducationMaterial{
		ID:        id,
		Type:      params.Type,
		Title:     params.Title,
		Body:      params.Body,
		URL:       params.URL,
		UpdatedAt: nowMillis(),
	}
	if err := store.UpdateEducationMaterial(ctx, mat); err != nil {
		return nil, fmt.Errorf("failed to update education material %s: %w", id, err)
	}

	logger.Info("Education material updated", zap.String("id", id), zap.String("by", actor.UID))

	return mat, nil
}
