package db

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cropsense/internal/types"
)

func TestObservationRepository_FindOrCreateLocation_Existing(t *testing.T) {
	db := new(mockDBTX)
	repo := NewObservationRepository(db)

	db.On("QueryRow", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.HasPrefix(sql, "SELECT")
	}), mock.Anything).
		Return(&mockRow{scanFn: func(dest ...any) error {
			*(dest[0].(*string)) = "loc-existing"
			return nil
		}})

	id, err := repo.FindOrCreateLocation(context.Background(), 39.47, -0.38)
	require.NoError(t, err)
	assert.Equal(t, "loc-existing", id)
	db.AssertNumberOfCalls(t, "QueryRow", 1)
}

func TestObservationRepository_FindOrCreateLocation_CreatesWhenMissing(t *testing.T) {
	db := new(mockDBTX)
	repo := NewObservationRepository(db)

	db.On("QueryRow", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.HasPrefix(sql, "SELECT")
	}), mock.Anything).
		Return(&mockRow{scanErr: pgx.ErrNoRows})
	db.On("QueryRow", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.HasPrefix(sql, "INSERT")
	}), mock.Anything).
		Return(&mockRow{scanFn: func(dest ...any) error {
			*(dest[0].(*string)) = "loc-new"
			return nil
		}})

	id, err := repo.FindOrCreateLocation(context.Background(), 10, 20)
	require.NoError(t, err)
	assert.Equal(t, "loc-new", id)
	db.AssertNumberOfCalls(t, "QueryRow", 2)
}

func TestObservationRepository_SaveWeatherRecord_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewObservationRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag(""), errors.New("insert failed"))

	err := repo.SaveWeatherRecord(context.Background(), "loc-1", &types.WeatherRecord{Temperature: 20})
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}

func TestObservationRepository_SaveRecommendations_OneInsertPerCrop(t *testing.T) {
	db := new(mockDBTX)
	repo := NewObservationRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	crops := []types.ScoredCrop{
		{CropName: "Wheat", Suitability: 90},
		{CropName: "Corn", Suitability: 80},
		{CropName: "Rice", Suitability: 70},
	}
	err := repo.SaveRecommendations(context.Background(), "loc-1", crops)
	require.NoError(t, err)
	db.AssertNumberOfCalls(t, "Exec", 3)
}
