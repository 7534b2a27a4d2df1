package fraud_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/kodipay/kodipay/internal/fraud"
)

func TestScorer_Analyze(t *testing.T) {
	tenantID := uuid.New()
	unitID := uuid.New()

	type testCase struct {
		name       string
		amount     int64
		setupMock  func(m *fraud.MockRepository)
		wantScore  int
		wantStatus fraud.Status
		wantFlags  []string
	}

	tests := []testCase{
		{
			name:   "CleanPayment",
			amount: 5000,
			setupMock: func(m *fraud.MockRepository) {
				m.EXPECT().ActiveLeaseRent(gomock.Any(), tenantID).Return(int64(5000), true, nil)
				m.EXPECT().PaymentCountSince(gomock.Any(), tenantID, gomock.Any()).Return(1, nil)
			},
			wantScore:  0,
			wantStatus: fraud.StatusApproved,
		},
		{
			name:   "HighValueAgainstActiveLease",
			amount: 12000,
			setupMock: func(m *fraud.MockRepository) {
				m.EXPECT().ActiveLeaseRent(gomock.Any(), tenantID).Return(int64(5000), true, nil)
				m.EXPECT().PaymentCountSince(gomock.Any(), tenantID, gomock.Any()).Return(0, nil)
			},
			wantScore:  60, // high value + large round number
			wantStatus: fraud.StatusReview,
			wantFlags:  []string{fraud.FlagHighValue, fraud.FlagRoundNumber},
		},
		{
			name:   "VelocityOnFourthPayment",
			amount: 5000,
			setupMock: func(m *fraud.MockRepository) {
				m.EXPECT().ActiveLeaseRent(gomock.Any(), tenantID).Return(int64(5000), true, nil)
				m.EXPECT().PaymentCountSince(gomock.Any(), tenantID, gomock.Any()).Return(3, nil)
			},
			wantScore:  40,
			wantStatus: fraud.StatusReview,
			wantFlags:  []string{fraud.FlagVelocity},
		},
		{
			name:   "HighValuePlusVelocityRejected",
			amount: 15500,
			setupMock: func(m *fraud.MockRepository) {
				m.EXPECT().ActiveLeaseRent(gomock.Any(), tenantID).Return(int64(5000), true, nil)
				m.EXPECT().PaymentCountSince(gomock.Any(), tenantID, gomock.Any()).Return(4, nil)
			},
			wantScore:  90,
			wantStatus: fraud.StatusRejected,
			wantFlags:  []string{fraud.FlagHighValue, fraud.FlagVelocity},
		},
		{
			name:   "LargeRoundNumberOnly",
			amount: 20000,
			setupMock: func(m *fraud.MockRepository) {
				m.EXPECT().ActiveLeaseRent(gomock.Any(), tenantID).Return(int64(0), false, nil)
				m.EXPECT().PaymentCountSince(gomock.Any(), tenantID, gomock.Any()).Return(0, nil)
			},
			wantScore:  10,
			wantStatus: fraud.StatusApproved,
			wantFlags:  []string{fraud.FlagRoundNumber},
		},
		{
			name:   "NoHistorySkipsLeaseRule",
			amount: 1000000,
			setupMock: func(m *fraud.MockRepository) {
				m.EXPECT().ActiveLeaseRent(gomock.Any(), tenantID).Return(int64(0), false, nil)
				m.EXPECT().PaymentCountSince(gomock.Any(), tenantID, gomock.Any()).Return(0, nil)
			},
			wantScore:  10,
			wantStatus: fraud.StatusApproved,
			wantFlags:  []string{fraud.FlagRoundNumber},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := fraud.NewMockRepository(ctrl)
			tt.setupMock(repo)

			scorer := fraud.NewScorer(repo)
			got, err := scorer.Analyze(context.Background(), tenantID, tt.amount, unitID)
			require.NoError(t, err)

			assert.Equal(t, tt.wantScore, got.RiskScore)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantFlags, got.Flags)
		})
	}
}

func TestScorer_Analyze_Deterministic(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tenantID := uuid.New()
	unitID := uuid.New()

	repo := fraud.NewMockRepository(ctrl)
	repo.EXPECT().ActiveLeaseRent(gomock.Any(), tenantID).Return(int64(5000), true, nil).Times(2)
	repo.EXPECT().PaymentCountSince(gomock.Any(), tenantID, gomock.Any()).Return(2, nil).Times(2)

	scorer := fraud.NewScorer(repo)

	first, err := scorer.Analyze(context.Background(), tenantID, 12000, unitID)
	require.NoError(t, err)

	second, err := scorer.Analyze(context.Background(), tenantID, 12000, unitID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScorer_Analyze_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tenantID := uuid.New()

	repo := fraud.NewMockRepository(ctrl)
	repo.EXPECT().ActiveLeaseRent(gomock.Any(), tenantID).Return(int64(0), false, errors.New("db error"))

	scorer := fraud.NewScorer(repo)

	_, err := scorer.Analyze(context.Background(), tenantID, 5000, uuid.New())
	assert.Error(t, err)
}
