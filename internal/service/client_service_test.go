package service

import (
	"context"
	"testing"

	"commerce-graph/internal/apperr"
	"commerce-graph/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateClient(t *testing.T) {
	f := newFixture(t, auth.DefaultPolicy())

	c := f.client(t, f.asA, " Ana@Example.com ")
	assert.Equal(t, "ana@example.com", c.Email)
	assert.Equal(t, f.sellerA, c.Seller)

	_, err := f.clients.CreateClient(f.asA, ClientInput{Name: "Ana", Surname: "Diaz", BusinessName: "Acme", Email: "ana@example.com"})
	assertKind(t, err, apperr.KindConflict)

	// the same email is fine for another seller
	other := f.client(t, f.asB, "ana@example.com")
	assert.Equal(t, f.sellerB, other.Seller)

	_, err = f.clients.CreateClient(context.Background(), ClientInput{Name: "Ana", Surname: "Diaz", BusinessName: "Acme", Email: "new@example.com"})
	assertKind(t, err, apperr.KindUnauthenticated)

	_, err = f.clients.CreateClient(f.asA, ClientInput{Name: "Ana", Surname: "Diaz", BusinessName: "Acme", Email: "not-an-email"})
	assertKind(t, err, apperr.KindBadRequest)
}

func TestUpdateAndDeleteClient(t *testing.T) {
	f := newFixture(t, auth.DefaultPolicy())
	c := f.client(t, f.asA, "ana@example.com")
	f.client(t, f.asA, "taken@example.com")

	updated, err := f.clients.UpdateClient(f.asA, c.ID.Hex(), ClientInput{
		Name: "Ana", Surname: "Diaz", BusinessName: "Acme Corp", Email: "ana@example.com", Phone: "555",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", updated.BusinessName)
	assert.Equal(t, "555", updated.Phone)

	_, err = f.clients.UpdateClient(f.asA, c.ID.Hex(), ClientInput{
		Name: "Ana", Surname: "Diaz", BusinessName: "Acme", Email: "taken@example.com",
	})
	assertKind(t, err, apperr.KindConflict)

	_, err = f.clients.UpdateClient(f.asA, primitive.NewObjectID().Hex(), ClientInput{
		Name: "Ana", Surname: "Diaz", BusinessName: "Acme", Email: "ana@example.com",
	})
	assertKind(t, err, apperr.KindNotFound)

	msg, err := f.clients.DeleteClient(f.asA, c.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Client deleted successfully", msg)

	_, err = f.clients.GetClientByID(f.asA, c.ID.Hex())
	assertKind(t, err, apperr.KindNotFound)
}

func TestClientLookupChecksExistenceBeforeOwnership(t *testing.T) {
	f := newFixture(t, auth.DefaultPolicy())

	_, err := f.clients.GetClientByID(f.asB, primitive.NewObjectID().Hex())
	assertKind(t, err, apperr.KindNotFound)

	_, err = f.clients.GetClientByID(context.Background(), primitive.NewObjectID().Hex())
	assertKind(t, err, apperr.KindUnauthenticated)
}

func TestClientListings(t *testing.T) {
	f := newFixture(t, auth.DefaultPolicy())
	first := f.client(t, f.asA, "one@example.com")
	second := f.client(t, f.asA, "two@example.com")
	f.client(t, f.asB, "three@example.com")

	mine, err := f.clients.GetSellerClients(f.asA)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)

	all, err := f.clients.GetClients(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.clients.GetSellerClients(context.Background())
	assertKind(t, err, apperr.KindUnauthenticated)
}
