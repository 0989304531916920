package catalog

import (
	"context"
	"errors"
	"fmt"
	"github.com/ariefcatur/go-shop.git/internal/paging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"strconv"
	"time"
)

// Repo is the PostgreSQL catalog store.
type Repo struct{ DB *pgxpool.Pool }

const itemColumns = `i.id, i.name, i.price, i.detail, i.sell_status, i.stock,
	i.created_by, i.modified_by, i.created_at, i.updated_at`

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	var status string
	err := row.Scan(&it.ID, &it.Name, &it.Price, &it.Detail, &status, &it.Stock,
		&it.CreatedBy, &it.ModifiedBy, &it.CreatedAt, &it.UpdatedAt)
	it.SellStatus = SellStatus(status)
	return it, err
}

// CreateItem inserts the item and its image records in one transaction.
func (r *Repo) CreateItem(ctx context.Context, item *Item, imgs []ItemImage) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO items(name, price, detail, sell_status, stock, created_by, modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id, created_at, updated_at`,
		item.Name, item.Price, item.Detail, string(item.SellStatus), item.Stock, item.CreatedBy,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}
	item.ModifiedBy = item.CreatedBy

	item.Images = make([]ItemImage, 0, len(imgs))
	for _, img := range imgs {
		img.ItemID = item.ID
		if err := insertImage(ctx, tx, &img); err != nil {
			return 0, err
		}
		item.Images = append(item.Images, img)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return item.ID, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertImage(ctx context.Context, q querier, img *ItemImage) error {
	err := q.QueryRow(ctx, `
		INSERT INTO item_images(item_id, original_name, stored_name, url, representative)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		img.ItemID, img.OriginalName, img.StoredName, img.URL, img.Representative,
	).Scan(&img.ID)
	if err != nil {
		return fmt.Errorf("insert item image: %w", err)
	}
	return nil
}

// UpdateItem writes the item row and repoints the given image records in one
// transaction. Every image must belong to the item.
func (r *Repo) UpdateItem(ctx context.Context, item *Item, imgs []ItemImage) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		UPDATE items
		SET name=$2, price=$3, detail=$4, sell_status=$5, stock=$6, modified_by=$7, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`,
		item.ID, item.Name, item.Price, item.Detail, string(item.SellStatus), item.Stock, item.ModifiedBy,
	).Scan(&item.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrItemNotFound
	}
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	for _, img := range imgs {
		ct, err := tx.Exec(ctx, `
			UPDATE item_images SET original_name=$3, stored_name=$4, url=$5, updated_at=now()
			WHERE id=$1 AND item_id=$2`, img.ID, item.ID, img.OriginalName, img.StoredName, img.URL)
		if err != nil {
			return fmt.Errorf("update item image %d: %w", img.ID, err)
		}
		if ct.RowsAffected() != 1 {
			return ErrImageNotFound
		}
	}
	return tx.Commit(ctx)
}

// GetItem loads an item together with its images.
func (r *Repo) GetItem(ctx context.Context, id int64) (*Item, error) {
	it, err := scanItem(r.DB.QueryRow(ctx, `SELECT `+itemColumns+` FROM items i WHERE i.id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	if it.Images, err = r.imagesOf(ctx, id); err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *Repo) imagesOf(ctx context.Context, itemID int64) ([]ItemImage, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, item_id, original_name, stored_name, url, representative
		FROM item_images WHERE item_id=$1 ORDER BY id`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ItemImage{}
	for rows.Next() {
		var img ItemImage
		if err := rows.Scan(&img.ID, &img.ItemID, &img.OriginalName, &img.StoredName, &img.URL, &img.Representative); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

// AdminPage runs the filtered admin search, newest first.
func (r *Repo) AdminPage(ctx context.Context, f SearchFilter, req paging.Request, now time.Time) (paging.Page[Item], error) {
	req = req.Normalize()
	cond, args := where(adminPredicates(f, now)...)

	var total int64
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM items i`+cond, args...).Scan(&total); err != nil {
		return paging.Page[Item]{}, fmt.Errorf("count items: %w", err)
	}

	rows, err := r.DB.Query(ctx, `SELECT `+itemColumns+` FROM items i`+cond+
		` ORDER BY i.id DESC`+limitOffset(len(args)), append(args, req.Limit(), req.Offset())...)
	if err != nil {
		return paging.Page[Item]{}, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var content []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return paging.Page[Item]{}, err
		}
		content = append(content, it)
	}
	if err := rows.Err(); err != nil {
		return paging.Page[Item]{}, err
	}
	return paging.New(content, total, req), nil
}

var representativeOnly = &predicate{cond: "img.representative"}

// MainPage lists items with their representative image for the storefront.
func (r *Repo) MainPage(ctx context.Context, f SearchFilter, req paging.Request) (paging.Page[MainItem], error) {
	req = req.Normalize()
	cond, args := where(append([]*predicate{representativeOnly}, mainPredicates(f)...)...)
	from := ` FROM item_images img JOIN items i ON i.id = img.item_id`

	var total int64
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*)`+from+cond, args...).Scan(&total); err != nil {
		return paging.Page[MainItem]{}, fmt.Errorf("count main items: %w", err)
	}

	rows, err := r.DB.Query(ctx, `SELECT i.id, i.name, i.detail, i.price, img.url`+from+cond+
		` ORDER BY i.id DESC`+limitOffset(len(args)), append(args, req.Limit(), req.Offset())...)
	if err != nil {
		return paging.Page[MainItem]{}, fmt.Errorf("query main items: %w", err)
	}
	defer rows.Close()

	var content []MainItem
	for rows.Next() {
		var m MainItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Detail, &m.Price, &m.ImageURL); err != nil {
			return paging.Page[MainItem]{}, err
		}
		content = append(content, m)
	}
	if err := rows.Err(); err != nil {
		return paging.Page[MainItem]{}, err
	}
	return paging.New(content, total, req), nil
}

func limitOffset(nargs int) string {
	return " LIMIT $" + strconv.Itoa(nargs+1) + " OFFSET $" + strconv.Itoa(nargs+2)
}

func (r *Repo) GetImage(ctx context.Context, id int64) (*ItemImage, error) {
	var img ItemImage
	err := r.DB.QueryRow(ctx, `
		SELECT id, item_id, original_name, stored_name, url, representative
		FROM item_images WHERE id=$1`, id,
	).Scan(&img.ID, &img.ItemID, &img.OriginalName, &img.StoredName, &img.URL, &img.Representative)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *Repo) AddImage(ctx context.Context, img *ItemImage) (int64, error) {
	if err := insertImage(ctx, r.DB, img); err != nil {
		return 0, err
	}
	return img.ID, nil
}

func (r *Repo) UpdateImage(ctx context.Context, img *ItemImage) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE item_images SET original_name=$2, stored_name=$3, url=$4, updated_at=now()
		WHERE id=$1`, img.ID, img.OriginalName, img.StoredName, img.URL)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrImageNotFound
	}
	return nil
}

// MarkSoldOutIfEmpty flips an item to SOLD_OUT when its stock is exhausted.
// It reports whether the row changed.
func (r *Repo) MarkSoldOutIfEmpty(ctx context.Context, itemID int64) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE items SET sell_status='SOLD_OUT', updated_at=now()
		WHERE id=$1 AND stock=0 AND sell_status <> 'SOLD_OUT'`, itemID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// MarkOnSaleIfRestocked reverses MarkSoldOutIfEmpty once stock has come back,
// for example after an order is cancelled. It reports whether the row changed.
func (r *Repo) MarkOnSaleIfRestocked(ctx context.Context, itemID int64) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE items SET sell_status='ON_SALE', updated_at=now()
		WHERE id=$1 AND stock>0 AND sell_status='SOLD_OUT'`, itemID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}
