package service

import (
	"context"
	"testing"

	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/domain"
	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/ports"
	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestReportingService_GetDashboardStats_Periods(t *testing.T) {
	tests := []struct {
		name       string
		period     string
		wantFilter bool
	}{
		{"day period", "day", true},
		{"week period", "week", true},
		{"month period", "month", true},
		{"all period", "all", false},
		{"empty period", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			ledgerRepo := mocks.NewMockLedgerRepository(ctrl)
			svc := NewReportingService(ledgerRepo)

			ctx := context.Background()
			expected := &ports.TransactionStats{TotalTransactions: 42}

			ledgerRepo.EXPECT().GetStats(ctx, gomock.Any()).DoAndReturn(
				func(_ context.Context, periodStart *int64) (*ports.TransactionStats, error) {
					if tt.wantFilter {
						assert.NotNil(t, periodStart)
					} else {
						assert.Nil(t, periodStart)
					}
					return expected, nil
				})

			stats, err := svc.GetDashboardStats(ctx, tt.period)
			require.NoError(t, err)
			assert.Equal(t, int64(42), stats.TotalTransactions)
		})
	}
}

func TestReportingService_GetDashboardStats_InvalidPeriod(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := NewReportingService(mocks.NewMockLedgerRepository(ctrl))

	stats, err := svc.GetDashboardStats(context.Background(), "year")
	assert.Nil(t, stats)
	assertAppError(t, err, "VAL_000")
}

func TestReportingService_ListTransactions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ledgerRepo := mocks.NewMockLedgerRepository(ctrl)
	svc := NewReportingService(ledgerRepo)

	ctx := context.Background()
	params := ports.TransactionListParams{Page: 1, PageSize: 20}

	ledgerRepo.EXPECT().List(ctx, params).Return([]domain.Transaction{{ID: uuid.New()}}, int64(1), nil)

	txns, total, err := svc.ListTransactions(ctx, params)
	require.NoError(t, err)
	assert.Len(t, txns, 1)
	assert.Equal(t, int64(1), total)
}
