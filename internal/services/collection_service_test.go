package services

import (
	"testing"

	"fundflow-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCollectionDefaultsCover(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	svc := NewCollectionService(testDB, NewLedgerService(testDB))

	collection, err := svc.Create(CreateCollectionDTO{
		Title:          "Medical fund",
		Category:       "medical",
		GoalAmount:     5000,
		OrganizerId:    uuid.NewString(),
		OrganizerName:  "Organizer",
		OrganizerEmail: "org@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, categoryCovers["medical"], collection.CoverImage)
	assert.Equal(t, models.CollectionActive, collection.Status)
	assert.Len(t, collection.ShareLink, 7)
}

func TestListDonationsMasksAnonymousAndFiltersTerminal(t *testing.T) {
	if testDB == nil {
		t.Skip("Database not configured")
	}
	defer cleanup()

	collection := seedCollection(t, 0, 0)
	svc := NewCollectionService(testDB, NewLedgerService(testDB))

	rows := []models.Donation{
		{ID: uuid.NewString(), CollectionId: collection.ID, OrderId: newOrderId(),
			DonorName: "Alice", DonorEmail: "a@example.com", Amount: 100,
			Status: models.DonationConfirmed},
		{ID: uuid.NewString(), CollectionId: collection.ID, OrderId: newOrderId(),
			DonorName: "Bob", DonorEmail: "b@example.com", Amount: 200,
			Anonymous: true, Status: models.DonationConfirmed},
		{ID: uuid.NewString(), CollectionId: collection.ID, OrderId: newOrderId(),
			DonorName: "Carol", DonorEmail: "c@example.com", Amount: 300,
			Status: models.DonationInitiated},
	}
	for i := range rows {
		require.NoError(t, testDB.Create(&rows[i]).Error)
	}

	result, err := svc.ListDonations(collection.ID, 1, 20)
	require.NoError(t, err)

	views := result.Data.([]DonationView)
	require.Len(t, views, 2, "initiated donations must not appear")

	names := []string{views[0].DonorName, views[1].DonorName}
	assert.Contains(t, names, "Alice")
	assert.Contains(t, names, "Anonymous")
	assert.NotContains(t, names, "Bob")
}
