package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-shop.git/internal/paging"
	"github.com/ariefcatur/go-shop.git/internal/postgres/pgtest"
)

func TestRepo_SearchAndImages(t *testing.T) {
	pool := pgtest.Pool(t)
	repo := &Repo{DB: pool}
	ctx := context.Background()
	tag := uuid.NewString()[:8]

	mk := func(name string, status SellStatus, age time.Duration) int64 {
		item := &Item{Name: name + " " + tag, Price: 1000, Detail: "d", SellStatus: status, Stock: 5, CreatedBy: "admin@" + tag}
		id, err := repo.CreateItem(ctx, item, []ItemImage{{OriginalName: "a.jpg", StoredName: tag + name, URL: "/images/item/" + tag + name, Representative: true}})
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `UPDATE items SET created_at = now() - ($2::bigint * interval '1 second') WHERE id=$1`, id, int64(age.Seconds()))
		require.NoError(t, err)
		return id
	}
	fresh := mk("fresh", SellStatusOnSale, 24*time.Hour-time.Minute)
	old := mk("old", SellStatusOnSale, 8*24*time.Hour)
	sold := mk("sold", SellStatusSoldOut, time.Hour)

	byTag := SearchFilter{SearchBy: SearchByName, Query: tag}

	page, err := repo.AdminPage(ctx, byTag, paging.Request{Size: 10}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, []int64{sold, old, fresh}, ids(page.Content))

	week := byTag
	week.DateWindow = WindowWeek
	page, err = repo.AdminPage(ctx, week, paging.Request{Size: 10}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []int64{sold, fresh}, ids(page.Content))

	bogus := byTag
	bogus.DateWindow = "1m,"
	page, err = repo.AdminPage(ctx, bogus, paging.Request{Size: 10}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)

	onSale := byTag
	onSale.SellStatus = SellStatusOnSale
	page, err = repo.AdminPage(ctx, onSale, paging.Request{Size: 1}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Content, 1)

	creator := SearchFilter{SearchBy: SearchByCreator, Query: "admin@" + tag}
	page, err = repo.AdminPage(ctx, creator, paging.Request{Size: 10}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)

	storefront, err := repo.MainPage(ctx, SearchFilter{Query: tag}, paging.Request{Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), storefront.Total)
	assert.Equal(t, "/images/item/"+tag+"sold", storefront.Content[0].ImageURL)

	item, err := repo.GetItem(ctx, fresh)
	require.NoError(t, err)
	require.Len(t, item.Images, 1)

	// second representative image for the same item is rejected
	_, err = repo.AddImage(ctx, &ItemImage{ItemID: fresh, Representative: true})
	assert.Error(t, err)

	_, err = repo.GetItem(ctx, -1)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestRepo_MarkSoldOutIfEmpty(t *testing.T) {
	pool := pgtest.Pool(t)
	repo := &Repo{DB: pool}
	ctx := context.Background()

	item := &Item{Name: "empty " + uuid.NewString(), Price: 1, Detail: "d", SellStatus: SellStatusOnSale, Stock: 0}
	id, err := repo.CreateItem(ctx, item, nil)
	require.NoError(t, err)

	changed, err := repo.MarkSoldOutIfEmpty(ctx, id)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.MarkSoldOutIfEmpty(ctx, id)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := repo.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, SellStatusSoldOut, got.SellStatus)
}

func TestRepo_MarkOnSaleIfRestocked(t *testing.T) {
	pool := pgtest.Pool(t)
	repo := &Repo{DB: pool}
	ctx := context.Background()

	item := &Item{Name: "restock " + uuid.NewString(), Price: 1, Detail: "d", SellStatus: SellStatusSoldOut, Stock: 0}
	id, err := repo.CreateItem(ctx, item, nil)
	require.NoError(t, err)

	changed, err := repo.MarkOnSaleIfRestocked(ctx, id)
	require.NoError(t, err)
	assert.False(t, changed, "no stock yet")

	_, err = pool.Exec(ctx, `UPDATE items SET stock=3 WHERE id=$1`, id)
	require.NoError(t, err)

	changed, err = repo.MarkOnSaleIfRestocked(ctx, id)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.MarkOnSaleIfRestocked(ctx, id)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := repo.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, SellStatusOnSale, got.SellStatus)
}

func TestRepo_UpdateItemRejectsForeignImage(t *testing.T) {
	pool := pgtest.Pool(t)
	repo := &Repo{DB: pool}
	ctx := context.Background()
	tag := uuid.NewString()[:8]

	mine := &Item{Name: "mine " + tag, Price: 100, Detail: "d", SellStatus: SellStatusOnSale, Stock: 1}
	mineID, err := repo.CreateItem(ctx, mine, []ItemImage{{OriginalName: "a.jpg", StoredName: tag + "a", URL: "/a", Representative: true}})
	require.NoError(t, err)
	other := &Item{Name: "other " + tag, Price: 100, Detail: "d", SellStatus: SellStatusOnSale, Stock: 1}
	otherID, err := repo.CreateItem(ctx, other, []ItemImage{{OriginalName: "b.jpg", StoredName: tag + "b", URL: "/b", Representative: true}})
	require.NoError(t, err)

	cur, err := repo.GetItem(ctx, mineID)
	require.NoError(t, err)
	foreign, err := repo.GetItem(ctx, otherID)
	require.NoError(t, err)

	cur.Price = 999
	own := cur.Images[0]
	own.StoredName = tag + "new"
	stray := foreign.Images[0]
	stray.StoredName = tag + "stray"
	err = repo.UpdateItem(ctx, cur, []ItemImage{own, stray})
	assert.ErrorIs(t, err, ErrImageNotFound)

	// the whole write rolled back
	after, err := repo.GetItem(ctx, mineID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), after.Price)
	assert.Equal(t, tag+"a", after.Images[0].StoredName)

	require.NoError(t, repo.UpdateItem(ctx, cur, []ItemImage{own}))
	after, err = repo.GetItem(ctx, mineID)
	require.NoError(t, err)
	assert.Equal(t, int64(999), after.Price)
	assert.Equal(t, tag+"new", after.Images[0].StoredName)
}

func ids(items []Item) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
