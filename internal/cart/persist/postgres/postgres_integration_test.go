//go:build integration

package postgres_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"savora/internal/cart/models"
	persistpg "savora/internal/cart/persist/postgres"
	"savora/pkg/testutil/containers"
)

type PostgresPersistSuite struct {
	suite.Suite
	pg      *containers.PostgresContainer
	factory *persistpg.Factory
}

func TestPostgresPersistSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresPersistSuite))
}

func (s *PostgresPersistSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	_, err := s.pg.DB.ExecContext(context.Background(), persistpg.Schema)
	s.Require().NoError(err)
	s.factory = persistpg.NewFactory(s.pg.DB)
}

func (s *PostgresPersistSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateAll(context.Background(), "cart_records"))
}

func (s *PostgresPersistSuite) TestRoundTrip() {
	ctx := context.Background()
	p := s.factory.ForOwner("alice")

	items := []models.LineItem{{
		ID:             uuid.New(),
		CatalogItemID:  "pad-thai",
		Name:           "Pad Thai",
		UnitPriceCents: 1250,
		Kind:           models.KindCatalogItem,
		Instructions:   "no peanuts",
		Quantity:       2,
	}}
	s.Require().NoError(p.SaveItems(ctx, items))
	s.Require().NoError(p.SaveNotifications(ctx, 4))

	state, err := p.Load(ctx)
	s.Require().NoError(err)
	s.Equal(items, state.Items)
	s.Equal(4, state.Notifications)
}

func (s *PostgresPersistSuite) TestSaveOverwritesPreviousRecord() {
	ctx := context.Background()
	p := s.factory.ForOwner("alice")

	s.Require().NoError(p.SaveNotifications(ctx, 1))
	s.Require().NoError(p.SaveNotifications(ctx, 2))

	state, err := p.Load(ctx)
	s.Require().NoError(err)
	s.Equal(2, state.Notifications)
}

func (s *PostgresPersistSuite) TestLoadAbsentOwnerIsEmpty() {
	state, err := s.factory.ForOwner("nobody").Load(context.Background())
	s.Require().NoError(err)
	s.Empty(state.Items)
	s.Zero(state.Notifications)
}

func (s *PostgresPersistSuite) TestCorruptRowIsDeleted() {
	ctx := context.Background()
	_, err := s.pg.DB.ExecContext(ctx,
		`INSERT INTO cart_records (owner_id, record, payload, updated_at)
		 VALUES ('alice', 'notifications', '-7', NOW())`)
	s.Require().NoError(err)

	state, err := s.factory.ForOwner("alice").Load(ctx)
	s.Require().NoError(err, "corruption never surfaces as an error")
	s.Zero(state.Notifications)

	var count int
	s.Require().NoError(s.pg.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cart_records WHERE owner_id = 'alice'`).Scan(&count))
	s.Zero(count, "corrupt row must be deleted")
}

func (s *PostgresPersistSuite) TestOwnersAreNamespaced() {
	ctx := context.Background()
	s.Require().NoError(s.factory.ForOwner("alice").SaveNotifications(ctx, 9))

	state, err := s.factory.ForOwner("bob").Load(ctx)
	s.Require().NoError(err)
	s.Zero(state.Notifications)
}
