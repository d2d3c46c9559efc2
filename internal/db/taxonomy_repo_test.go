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

func TestTaxonomyRepository_GetGenus_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewTaxonomyRepository(db)

	familyID := "fam-1"
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFn: func(dest ...any) error {
			*(dest[0].(*string)) = "gen-1"
			*(dest[1].(*string)) = "Oryza"
			*(dest[2].(**string)) = &familyID
			return nil
		}})

	genus, err := repo.GetGenus(context.Background(), "gen-1")
	require.NoError(t, err)
	require.NotNil(t, genus)
	assert.Equal(t, "Oryza", genus.Name)
	require.NotNil(t, genus.FamilyID)
	assert.Equal(t, "fam-1", *genus.FamilyID)
}

func TestTaxonomyRepository_GetGenus_NoRowsIsNil(t *testing.T) {
	db := new(mockDBTX)
	repo := NewTaxonomyRepository(db)

	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanErr: pgx.ErrNoRows})

	genus, err := repo.GetGenus(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, genus)
}

func TestTaxonomyRepository_GetGenus_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewTaxonomyRepository(db)

	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanErr: errors.New("connection reset")})

	_, err := repo.GetGenus(context.Background(), "gen-1")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}

func TestTaxonomyRepository_Counts(t *testing.T) {
	db := new(mockDBTX)
	repo := NewTaxonomyRepository(db)

	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFn: func(dest ...any) error {
			*(dest[0].(*int)) = 20
			*(dest[1].(*int)) = 40
			*(dest[2].(*int)) = 90
			return nil
		}})

	orders, families, genera, err := repo.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, orders)
	assert.Equal(t, 40, families)
	assert.Equal(t, 90, genera)
}
