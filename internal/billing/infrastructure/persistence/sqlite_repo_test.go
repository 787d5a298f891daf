package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/venturebridge/venturebridge/internal/billing/domain"
	"github.com/venturebridge/venturebridge/internal/shared/infrastructure/migrations"
	sharedPersistence "github.com/venturebridge/venturebridge/internal/shared/infrastructure/persistence"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.RunSQLiteMigrations(context.Background(), db))
	return db
}

func TestSQLiteSubscriptionRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewSQLiteSubscriptionRepository(db)
	catalog := domain.MustDefaultCatalog()
	now := time.Date(2026, 2, 1, 10, 30, 0, 0, time.UTC)

	t.Run("round-trips a time-bound subscription", func(t *testing.T) {
		plan, _ := catalog.Plan(domain.TierStandard)
		sub := domain.NewSubscription(uuid.New(), plan, now)
		require.NoError(t, repo.Upsert(ctx, sub))

		got, err := repo.GetByOwner(ctx, sub.OwnerID())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, sub.ID(), got.ID())
		assert.Equal(t, domain.TierStandard, got.Tier())
		assert.Equal(t, domain.SubscriptionActive, got.Status())
		require.NotNil(t, got.EndsAt())
		assert.True(t, got.EndsAt().Equal(*sub.EndsAt()))
	})

	t.Run("round-trips a lifetime subscription", func(t *testing.T) {
		plan, _ := catalog.Plan(domain.TierPro)
		sub := domain.NewSubscription(uuid.New(), plan, now)
		require.NoError(t, repo.Upsert(ctx, sub))

		got, err := repo.GetByID(ctx, sub.ID())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Nil(t, got.EndsAt())
		assert.True(t, got.Lifetime())
	})

	t.Run("missing rows return nil without error", func(t *testing.T) {
		got, err := repo.GetByOwner(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("upsert renews in place", func(t *testing.T) {
		lite, _ := catalog.Plan(domain.TierLite)
		premium, _ := catalog.Plan(domain.TierPremium)
		sub := domain.NewSubscription(uuid.New(), lite, now)
		require.NoError(t, repo.Upsert(ctx, sub))

		sub.Renew(premium, now.AddDate(0, 1, 0))
		require.NoError(t, repo.Upsert(ctx, sub))

		got, err := repo.GetByID(ctx, sub.ID())
		require.NoError(t, err)
		assert.Equal(t, domain.TierPremium, got.Tier())
		assert.True(t, got.StartsAt().Equal(now.AddDate(0, 1, 0)))
	})

	t.Run("one subscription per owner", func(t *testing.T) {
		lite, _ := catalog.Plan(domain.TierLite)
		owner := uuid.New()
		first := domain.NewSubscription(owner, lite, now)
		require.NoError(t, repo.Upsert(ctx, first))

		second := domain.NewSubscription(owner, lite, now)
		err := repo.Upsert(ctx, second)
		require.Error(t, err)
		assert.True(t, sharedPersistence.IsUniqueViolation(err))
	})
}

func TestSQLitePaymentRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewSQLitePaymentRepository(db)
	now := time.Date(2026, 2, 1, 10, 30, 0, 0, time.UTC)

	newRecord := func(t *testing.T, orderRef, paymentRef string, subID uuid.NullUUID) *domain.PaymentRecord {
		t.Helper()
		rec, err := domain.NewPaymentRecord(subID, decimal.RequireFromString("89.00"),
			domain.PaymentSuccess, orderRef, paymentRef, now)
		require.NoError(t, err)
		return rec
	}

	t.Run("insert and find by external refs", func(t *testing.T) {
		rec := newRecord(t, "order_a", "pay_a", uuid.NullUUID{})
		require.NoError(t, repo.Insert(ctx, rec))

		got, err := repo.FindByExternalRefs(ctx, "order_a", "pay_a")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, rec.ID, got.ID)
		assert.True(t, got.Amount.Equal(rec.Amount))
		assert.False(t, got.SubscriptionID.Valid)
	})

	t.Run("unknown refs return nil", func(t *testing.T) {
		got, err := repo.FindByExternalRefs(ctx, "order_x", "pay_x")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("duplicate external refs report the lost race", func(t *testing.T) {
		first := newRecord(t, "order_b", "pay_b", uuid.NullUUID{})
		require.NoError(t, repo.Insert(ctx, first))

		dup := newRecord(t, "order_b", "pay_b", uuid.NullUUID{})
		err := repo.Insert(ctx, dup)
		assert.ErrorIs(t, err, domain.ErrDuplicateAttempt)

		got, err := repo.FindByExternalRefs(ctx, "order_b", "pay_b")
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID, "the winner's row stays on the ledger")
	})

	t.Run("duplicate insert keeps the enclosing transaction usable", func(t *testing.T) {
		first := newRecord(t, "order_d", "pay_d", uuid.NullUUID{})
		require.NoError(t, repo.Insert(ctx, first))

		uow := sharedPersistence.NewSQLiteUnitOfWork(db)
		txCtx, err := uow.Begin(ctx)
		require.NoError(t, err)

		dup := newRecord(t, "order_d", "pay_d", uuid.NullUUID{})
		assert.ErrorIs(t, repo.Insert(txCtx, dup), domain.ErrDuplicateAttempt)

		// No constraint error fired, so the same transaction can still read.
		got, err := repo.FindByExternalRefs(txCtx, "order_d", "pay_d")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, first.ID, got.ID)
		require.NoError(t, uow.Commit(txCtx))
	})

	t.Run("records without refs never collide", func(t *testing.T) {
		require.NoError(t, repo.Insert(ctx, newRecord(t, "", "", uuid.NullUUID{})))
		require.NoError(t, repo.Insert(ctx, newRecord(t, "", "", uuid.NullUUID{})))
	})

	t.Run("lists a subscription's ledger newest first", func(t *testing.T) {
		subs := NewSQLiteSubscriptionRepository(db)
		catalog := domain.MustDefaultCatalog()
		plan, _ := catalog.Plan(domain.TierLite)
		sub := domain.NewSubscription(uuid.New(), plan, now)
		require.NoError(t, subs.Upsert(ctx, sub))
		subID := uuid.NullUUID{UUID: sub.ID(), Valid: true}

		older, err := domain.NewPaymentRecord(subID, decimal.NewFromInt(29),
			domain.PaymentSuccess, "order_c1", "pay_c1", now.Add(-time.Hour))
		require.NoError(t, err)
		newer, err := domain.NewPaymentRecord(subID, decimal.NewFromInt(29),
			domain.PaymentFailed, "order_c2", "pay_c2", now)
		require.NoError(t, err)
		require.NoError(t, repo.Insert(ctx, older))
		require.NoError(t, repo.Insert(ctx, newer))

		recs, err := repo.ListBySubscription(ctx, sub.ID())
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, newer.ID, recs[0].ID)
		assert.Equal(t, older.ID, recs[1].ID)
	})
}

func TestSQLiteRepositoriesJoinUnitOfWork(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	subs := NewSQLiteSubscriptionRepository(db)
	payments := NewSQLitePaymentRepository(db)
	uow := sharedPersistence.NewSQLiteUnitOfWork(db)
	catalog := domain.MustDefaultCatalog()
	now := time.Date(2026, 2, 1, 10, 30, 0, 0, time.UTC)

	plan, _ := catalog.Plan(domain.TierStandard)
	sub := domain.NewSubscription(uuid.New(), plan, now)

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, subs.Upsert(txCtx, sub))
	rec, err := domain.NewPaymentRecord(uuid.NullUUID{UUID: sub.ID(), Valid: true},
		plan.Price, domain.PaymentSuccess, "order_tx", "pay_tx", now)
	require.NoError(t, err)
	require.NoError(t, payments.Insert(txCtx, rec))
	require.NoError(t, uow.Rollback(txCtx))

	got, err := subs.GetByID(ctx, sub.ID())
	require.NoError(t, err)
	assert.Nil(t, got, "rollback must discard both writes")

	gotRec, err := payments.FindByExternalRefs(ctx, "order_tx", "pay_tx")
	require.NoError(t, err)
	assert.Nil(t, gotRec)
}
