package books

import (
	"testing"

	"github.com/google/uuid"
	"github.com/quillify-app/quillify/apperr"
	"github.com/quillify-app/quillify/services/user"
	"github.com/quillify-app/quillify/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB, string, string) {
	db := testutils.SetupTestDB(t, &user.User{}, &Book{})

	owner := &user.User{ID: uuid.New().String(), Name: "Owner"}
	other := &user.User{ID: uuid.New().String(), Name: "Other"}
	require.NoError(t, db.Create(owner).Error)
	require.NoError(t, db.Create(other).Error)

	return NewService(db, nil), db, owner.ID, other.ID
}

func intPtr(v int) *int { return &v }

func TestService_CreateAndGet(t *testing.T) {
	service, _, ownerID, otherID := newTestService(t)

	b, err := service.Create(ownerID, CreateInput{
		Title:     "The Left Hand of Darkness",
		Author:    "Ursula K. Le Guin",
		Status:    StatusReading,
		PageCount: 304,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Nil(t, b.FinishedAt)

	loaded, err := service.Get(ownerID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Left Hand of Darkness", loaded.Title)

	// another user's catalog does not contain it
	_, err = service.Get(otherID, b.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestService_Create_Validation(t *testing.T) {
	service, _, ownerID, _ := newTestService(t)

	_, err := service.Create(ownerID, CreateInput{Title: "   "})
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	_, err = service.Create(ownerID, CreateInput{Title: "Dune", Status: "abandoned"})
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	_, err = service.Create(ownerID, CreateInput{Title: "Dune", Rating: intPtr(6)})
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestService_Create_FinishedGetsTimestamp(t *testing.T) {
	service, _, ownerID, _ := newTestService(t)

	b, err := service.Create(ownerID, CreateInput{Title: "Dune", Status: StatusFinished})
	require.NoError(t, err)
	assert.NotNil(t, b.FinishedAt)
}

func TestService_Update(t *testing.T) {
	service, _, ownerID, otherID := newTestService(t)

	b, err := service.Create(ownerID, CreateInput{Title: "Dune", Status: StatusReading, PageCount: 412})
	require.NoError(t, err)

	status := StatusFinished
	updated, err := service.Update(ownerID, b.ID, UpdateInput{
		Status: &status,
		Rating: intPtr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, updated.Status)
	require.NotNil(t, updated.Rating)
	assert.Equal(t, 5, *updated.Rating)
	assert.NotNil(t, updated.FinishedAt)

	// owner scoping
	title := "Hijacked"
	_, err = service.Update(otherID, b.ID, UpdateInput{Title: &title})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestService_Delete(t *testing.T) {
	service, _, ownerID, otherID := newTestService(t)

	b, err := service.Create(ownerID, CreateInput{Title: "Dune"})
	require.NoError(t, err)

	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(service.Delete(otherID, b.ID)))
	require.NoError(t, service.Delete(ownerID, b.ID))

	_, err = service.Get(ownerID, b.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestService_List_Pagination(t *testing.T) {
	service, _, ownerID, otherID := newTestService(t)

	for i := 0; i < 25; i++ {
		_, err := service.Create(ownerID, CreateInput{Title: "Book", Author: "A"})
		require.NoError(t, err)
	}
	_, err := service.Create(otherID, CreateInput{Title: "Not mine"})
	require.NoError(t, err)

	page, err := service.List(ownerID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(25), page.Total)
	assert.Len(t, page.Books, 10)

	last, err := service.List(ownerID, 3, 10)
	require.NoError(t, err)
	assert.Len(t, last.Books, 5)

	// defaults clamp bad input
	clamped, err := service.List(ownerID, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, clamped.Page)
	assert.Equal(t, defaultPerPage, clamped.PerPage)
}

func TestService_Stats(t *testing.T) {
	service, _, ownerID, _ := newTestService(t)

	_, err := service.Create(ownerID, CreateInput{Title: "A", Status: StatusFinished, PageCount: 100, Rating: intPtr(4)})
	require.NoError(t, err)
	_, err = service.Create(ownerID, CreateInput{Title: "B", Status: StatusFinished, PageCount: 200, Rating: intPtr(5)})
	require.NoError(t, err)
	_, err = service.Create(ownerID, CreateInput{Title: "C", Status: StatusReading, PageCount: 300})
	require.NoError(t, err)
	_, err = service.Create(ownerID, CreateInput{Title: "D", Status: StatusWant})
	require.NoError(t, err)

	stats, err := service.Stats(ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(2), stats.Finished)
	assert.Equal(t, int64(1), stats.Reading)
	assert.Equal(t, int64(1), stats.Want)
	assert.Equal(t, int64(300), stats.PagesFinished)
	require.NotNil(t, stats.AverageRating)
	assert.InDelta(t, 4.5, *stats.AverageRating, 0.001)
}

func TestService_Stats_Empty(t *testing.T) {
	service, _, ownerID, _ := newTestService(t)

	stats, err := service.Stats(ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Total)
	assert.Nil(t, stats.AverageRating)
}
