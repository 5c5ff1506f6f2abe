package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentgap/recruitment-evaluator/internal/adapter/repo/postgres"
	"github.com/talentgap/recruitment-evaluator/internal/domain"
)

func TestValidFlag(t *testing.T) {
	for _, name := range []string{"hidden_criteria", "assessment_conflict", "calibration_gap", "score_mismatch"} {
		assert.True(t, postgres.ValidFlag(name), name)
	}
	assert.False(t, postgres.ValidFlag("has_hidden_criteria"))
	assert.False(t, postgres.ValidFlag("status; DROP TABLE candidates"))
	assert.False(t, postgres.ValidFlag(""))
}

func TestMetricsRepo_OverviewScansAggregates(t *testing.T) {
	pool := &poolStub{row: rowStub{scan: func(dest ...any) error {
		*(dest[0].(*int)) = 10
		*(dest[1].(*int)) = 4
		*(dest[2].(*int)) = 6
		*(dest[3].(*int)) = 2
		*(dest[4].(*int)) = 1
		*(dest[5].(*int)) = 1
		*(dest[6].(*int)) = 3
		*(dest[7].(*float64)) = 8.4
		return nil
	}}}
	repo := postgres.NewMetricsRepo(pool)

	m, err := repo.Overview(context.Background(), domain.MetricsFilter{})
	require.NoError(t, err)
	assert.Equal(t, 10, m.Total)
	assert.Equal(t, 4, m.Accepted)
	assert.Equal(t, 6, m.Rejected)
	assert.Equal(t, 3, m.ScoreMismatch)
	assert.InDelta(t, 8.4, m.ScoreMismatchAvg, 0.0001)
}

func TestMetricsRepo_CandidatesRejectsUnknownFlag(t *testing.T) {
	repo := postgres.NewMetricsRepo(&poolStub{})

	_, err := repo.Candidates(context.Background(), domain.MetricsFilter{}, "nonsense", 0, 50)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestMetricsRepo_CandidatesQueryError(t *testing.T) {
	repo := postgres.NewMetricsRepo(&poolStub{queryErr: assert.AnError})

	now := time.Now()
	_, err := repo.Candidates(context.Background(), domain.MetricsFilter{From: &now}, "score_mismatch", 0, 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=metrics.candidates")
}
