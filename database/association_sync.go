package database

import (
	"context"
	"errors"
	"go-rbac-admin/domain"
	"go-rbac-admin/pkg/utils"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// SyncObserver receives the outcome of every membership sync.
type SyncObserver interface {
	ObserveSync(association string, result *domain.SyncResult, elapsed time.Duration, err error)
}

// Association describes one direction of a soft-deletable join table: the
// anchor column is fixed by the caller, the other column holds the ids being
// synced.
type Association[J any] struct {
	Name          string
	AnchorColumn  string
	OtherColumn   string
	OtherTable    string
	OtherNotFound *domain.DetailedError
	NewRow        func(anchorID, otherID string) *J
	Model         func(row *J) *domain.SQLModel
	OtherID       func(row *J) string
}

// AssociationSync reconciles join rows for one anchor against a desired id
// set. Callers own the transaction and must lock the anchor row first so two
// syncs of the same anchor serialize.
type AssociationSync[J any] struct {
	assoc    Association[J]
	observer SyncObserver
}

func NewAssociationSync[J any](assoc Association[J], observer SyncObserver) *AssociationSync[J] {
	return &AssociationSync[J]{assoc: assoc, observer: observer}
}

// Sync makes the active rows for anchorID equal desiredIDs. Revoked rows are
// restored rather than duplicated; rows outside the desired set are
// soft-deleted. Every desired id must name an active row of OtherTable.
func (s *AssociationSync[J]) Sync(ctx context.Context, tx *gorm.DB, anchorID string, desiredIDs []string) (result *domain.SyncResult, err error) {
	start := time.Now()
	defer func() {
		if s.observer != nil {
			s.observer.ObserveSync(s.assoc.Name, result, time.Since(start), err)
		}
	}()

	desired := lo.Uniq(lo.Compact(desiredIDs))
	if err = s.ensureActive(ctx, tx, desired); err != nil {
		return nil, err
	}

	rows, err := s.rowsForAnchor(ctx, tx, anchorID)
	if err != nil {
		return nil, err
	}
	byOther := lo.KeyBy(rows, s.assoc.OtherID)

	result = &domain.SyncResult{
		Created:   []string{},
		Restored:  []string{},
		Revoked:   []string{},
		Unchanged: []string{},
	}

	for _, otherID := range desired {
		row, ok := byOther[otherID]
		switch {
		case !ok:
			if err = tx.WithContext(ctx).Create(s.assoc.NewRow(anchorID, otherID)).Error; err != nil {
				return nil, err
			}
			result.Created = append(result.Created, otherID)
		case s.assoc.Model(row).IsDeleted():
			if err = s.setDeletedAt(ctx, tx, s.assoc.Model(row).ID, 0); err != nil {
				return nil, err
			}
			result.Restored = append(result.Restored, otherID)
		default:
			result.Unchanged = append(result.Unchanged, otherID)
		}
	}

	now := utils.NowUnixMillis()
	for _, row := range rows {
		model := s.assoc.Model(row)
		if model.IsDeleted() || lo.Contains(desired, s.assoc.OtherID(row)) {
			continue
		}
		if err = s.setDeletedAt(ctx, tx, model.ID, now); err != nil {
			return nil, err
		}
		result.Revoked = append(result.Revoked, s.assoc.OtherID(row))
	}

	return result, nil
}

// RevokeAnchor soft-deletes every active row of the anchor. Used to cascade
// the deletion of the anchor entity.
func (s *AssociationSync[J]) RevokeAnchor(ctx context.Context, tx *gorm.DB, anchorID string) (int64, error) {
	res := tx.WithContext(ctx).
		Model(new(J)).
		Where(s.assoc.AnchorColumn+" = ? AND deleted_at = 0", anchorID).
		Update("deleted_at", utils.NowUnixMillis())
	return res.RowsAffected, res.Error
}

// SetPair revokes or restores the single row joining anchorID and otherID.
// It is a no-op when the row is already in the requested state and returns
// ErrRecordNotFound when the pair was never granted.
func (s *AssociationSync[J]) SetPair(ctx context.Context, tx *gorm.DB, anchorID, otherID string, active bool) error {
	var row J
	err := tx.WithContext(ctx).
		Where(s.assoc.AnchorColumn+" = ? AND "+s.assoc.OtherColumn+" = ?", anchorID, otherID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrRecordNotFound
	}
	if err != nil {
		return err
	}

	model := s.assoc.Model(&row)
	switch {
	case active && model.IsDeleted():
		return s.setDeletedAt(ctx, tx, model.ID, 0)
	case !active && !model.IsDeleted():
		return s.setDeletedAt(ctx, tx, model.ID, utils.NowUnixMillis())
	default:
		return nil
	}
}

// ActiveOtherIDs lists the other-side ids currently granted to anchorID.
func (s *AssociationSync[J]) ActiveOtherIDs(ctx context.Context, db *gorm.DB, anchorID string) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).
		Model(new(J)).
		Where(s.assoc.AnchorColumn+" = ? AND deleted_at = 0", anchorID).
		Pluck(s.assoc.OtherColumn, &ids).Error
	return ids, err
}

func (s *AssociationSync[J]) rowsForAnchor(ctx context.Context, tx *gorm.DB, anchorID string) ([]*J, error) {
	var rows []*J
	err := tx.WithContext(ctx).
		Where(s.assoc.AnchorColumn+" = ?", anchorID).
		Find(&rows).Error
	return rows, err
}

func (s *AssociationSync[J]) setDeletedAt(ctx context.Context, tx *gorm.DB, rowID string, deletedAt int64) error {
	return tx.WithContext(ctx).
		Model(new(J)).
		Where("id = ?", rowID).
		Update("deleted_at", deletedAt).Error
}

func (s *AssociationSync[J]) ensureActive(ctx context.Context, tx *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	var found []string
	err := tx.WithContext(ctx).
		Table(s.assoc.OtherTable).
		Where("id IN ? AND deleted_at = 0", ids).
		Pluck("id", &found).Error
	if err != nil {
		return err
	}

	missing, _ := lo.Difference(ids, found)
	if len(missing) > 0 {
		return s.assoc.OtherNotFound.WithDetail("ids", missing)
	}
	return nil
}
