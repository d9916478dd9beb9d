package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"realty-system/internal/authz"
	"realty-system/internal/dto"
	"realty-system/internal/entities"
	apperrors "realty-system/pkg/errors"
	"realty-system/pkg/types"
)

func TestFilialSoftDelete_BlockedByLiveReport(t *testing.T) {
	filials := newFakeFilialRepo()
	hist := &fakeHistoryRepo{}
	sd := &fakeSoftDeleteRepo{filials: filials, listings: newFakeListingRepo(), clients: newFakeClientRepo()}
	loaders := NewSnapshotLoaders(sd.listings, sd.clients, filials, nil, nil)
	softDelete := NewSoftDeleteService(fakeTx{}, sd, hist, loaders, zap.NewNop())
	svc := NewFilialService(fakeTx{}, filials, hist, softDelete, zap.NewNop())

	admin := &entities.User{ID: 1, IsActive: true, IsSuperuser: true}
	ctx := principalCtx(admin)

	filial, err := svc.CreateFilial(ctx, dto.FilialDTO{Name: "Центральный"})
	require.NoError(t, err)
	report, err := svc.CreateFilialReport(ctx, filial.ID, dto.FilialReportDTO{
		Title: "Январь", PeriodFrom: "2026-01-01", PeriodTo: "2026-01-31",
	})
	require.NoError(t, err)

	// 1. Филиал с живым отчётом не удаляется
	err = svc.DeleteFilial(ctx, filial.ID)
	var rerr *apperrors.ReferentialIntegrityError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "filial_reports.filial_id", rerr.Relation)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.False(t, filials.filials[filial.ID].IsDeleted)

	// 2. Отчёт удаляется, затем филиал
	require.NoError(t, svc.DeleteFilialReport(ctx, report.ID))
	require.NoError(t, svc.DeleteFilial(ctx, filial.ID))
	assert.True(t, filials.filials[filial.ID].IsDeleted)

	// 3. Повторное удаление - не найдено
	assert.ErrorIs(t, svc.DeleteFilial(ctx, filial.ID), apperrors.ErrNotFound)
	_, err = svc.FindFilial(ctx, filial.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.Equal(t, []string{"+", "-"}, hist.changeTypes(filial.HistoryRef()))
	assert.Equal(t, []string{"+", "-"}, hist.changeTypes(report.HistoryRef()))
}

func TestFilialReport_PeriodValidation(t *testing.T) {
	filials := newFakeFilialRepo()
	svc := NewFilialService(fakeTx{}, filials, &fakeHistoryRepo{}, nil, zap.NewNop())
	ctx := principalCtx(realtor(1), capOf(authz.ResourceFilialReport, authz.ActionAdd, authz.ScopeGlobal))

	_, err := svc.CreateFilialReport(ctx, 1, dto.FilialReportDTO{Title: "x", PeriodFrom: "2026-02-01", PeriodTo: "2026-01-01"})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "period_from")
}

func TestFilials_RequireGlobal(t *testing.T) {
	svc := NewFilialService(fakeTx{}, newFakeFilialRepo(), &fakeHistoryRepo{}, nil, zap.NewNop())
	ctx := principalCtx(realtor(1, 1), capOf(authz.ResourceApartment, authz.ActionView, authz.ScopeGlobal))

	_, _, err := svc.GetFilials(ctx, types.Filter{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
