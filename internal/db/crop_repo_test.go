package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cropsense/internal/types"
)

func TestOrderClause(t *testing.T) {
	tests := []struct {
		name      string
		sortBy    string
		sortOrder string
		want      string
		wantErr   bool
	}{
		{"default is priority rank desc", "", "", "c.priority_rank DESC", false},
		{"name asc", "name", "asc", "c.common_name ASC", false},
		{"common_name alias", "common_name", "asc", "c.common_name ASC", false},
		{"scientific name desc", "scientific_name", "desc", "c.scientific_name DESC", false},
		{"created_at default order", "created_at", "", "c.created_at DESC", false},
		{"order is case insensitive", "name", "ASC", "c.common_name ASC", false},
		{"unknown column rejected", "color", "asc", "", true},
		{"sql injection rejected", "name; DROP TABLE crops", "asc", "", true},
		{"unknown order rejected", "name", "sideways", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OrderClause(tt.sortBy, tt.sortOrder)
			if tt.wantErr {
				require.Error(t, err)
				var appErr *types.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, types.ErrCodeValidationInvalidSort, appErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCropRepository_GetByID_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo := NewCropRepository(db)

	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanErr: pgx.ErrNoRows})

	crop, err := repo.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.Nil(t, crop)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeNotFoundCrop, appErr.Code)
}

func TestCropRepository_GetByID_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewCropRepository(db)

	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanErr: errors.New("connection reset")})

	_, err := repo.GetByID(context.Background(), "c1")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}

func TestCropRepository_Search_InvalidSortRejectedBeforeQuery(t *testing.T) {
	db := new(mockDBTX)
	repo := NewCropRepository(db)

	_, _, err := repo.Search(context.Background(), "rice", "color", "asc", 10, 0)
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationInvalidSort, appErr.Code)

	// The whitelist check must run before any SQL is issued.
	db.AssertNotCalled(t, "Query")
	db.AssertNotCalled(t, "QueryRow")
}
