package orders

import (
	"context"
	"errors"
	"fmt"
	"github.com/ariefcatur/go-shop.git/internal/catalog"
	"github.com/ariefcatur/go-shop.git/internal/paging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the PostgreSQL order ledger.
type Repo struct{ DB *pgxpool.Pool }

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *Repo) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err // rollback via defer
	}
	return tx.Commit(ctx)
}

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) DecrementStock(ctx context.Context, itemID int64, qty int) (string, int64, error) {
	var name string
	var price int64
	err := t.tx.QueryRow(ctx, `
		UPDATE items SET stock = stock - $2, updated_at = now()
		WHERE id=$1 AND stock >= $2
		RETURNING name, price`, itemID, qty).Scan(&name, &price)
	if err == nil {
		return name, price, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", 0, err
	}
	// nothing updated: either the item is missing or it has too little stock
	var stock int
	err = t.tx.QueryRow(ctx, `SELECT stock FROM items WHERE id=$1`, itemID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", 0, catalog.ErrItemNotFound
	}
	if err != nil {
		return "", 0, err
	}
	return "", 0, fmt.Errorf("%w: item %d has %d, requested %d", ErrInsufficientStock, itemID, stock, qty)
}

func (t *pgTx) RestoreStock(ctx context.Context, itemID int64, qty int) error {
	ct, err := t.tx.Exec(ctx, `UPDATE items SET stock = stock + $2, updated_at = now() WHERE id=$1`, itemID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return catalog.ErrItemNotFound
	}
	return nil
}

func (t *pgTx) InsertOrder(ctx context.Context, o *Order) (int64, error) {
	if err := t.tx.QueryRow(ctx, `
		INSERT INTO orders(member_id, status, ordered_at)
		VALUES ($1, $2, $3)
		RETURNING id`, o.MemberID, string(o.Status), o.OrderedAt).Scan(&o.ID); err != nil {
		return 0, err
	}
	for _, l := range o.Lines {
		if _, err := t.tx.Exec(ctx, `
			INSERT INTO order_lines(order_id, item_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)`, o.ID, l.ItemID, l.Quantity, l.UnitPrice); err != nil {
			return 0, err
		}
	}
	return o.ID, nil
}

func (t *pgTx) LockOrder(ctx context.Context, id int64) (*Order, error) {
	var o Order
	var st string
	err := t.tx.QueryRow(ctx, `
		SELECT id, member_id, status, ordered_at FROM orders WHERE id=$1 FOR UPDATE`, id,
	).Scan(&o.ID, &o.MemberID, &st, &o.OrderedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Status = Status(st)
	lines, err := linesOf(ctx, t.tx, []int64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Lines = lines[o.ID]
	return &o, nil
}

func (t *pgTx) SetStatus(ctx context.Context, id int64, st Status) error {
	ct, err := t.tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, id, string(st))
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id int64) (*Order, error) {
	var o Order
	var st string
	err := r.DB.QueryRow(ctx, `
		SELECT id, member_id, status, ordered_at FROM orders WHERE id=$1`, id,
	).Scan(&o.ID, &o.MemberID, &st, &o.OrderedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Status = Status(st)
	lines, err := linesOf(ctx, r.DB, []int64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Lines = lines[o.ID]
	return &o, nil
}

func (r *Repo) ListByMember(ctx context.Context, memberID int64, req paging.Request) (paging.Page[Order], error) {
	var total int64
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE member_id=$1`, memberID).Scan(&total); err != nil {
		return paging.Page[Order]{}, fmt.Errorf("count orders: %w", err)
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, member_id, status, ordered_at FROM orders
		WHERE member_id=$1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`, memberID, req.Limit(), req.Offset())
	if err != nil {
		return paging.Page[Order]{}, fmt.Errorf("query orders: %w", err)
	}
	var content []Order
	var ids []int64
	for rows.Next() {
		var o Order
		var st string
		if err := rows.Scan(&o.ID, &o.MemberID, &st, &o.OrderedAt); err != nil {
			rows.Close()
			return paging.Page[Order]{}, err
		}
		o.Status = Status(st)
		content = append(content, o)
		ids = append(ids, o.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return paging.Page[Order]{}, err
	}

	if len(ids) > 0 {
		lines, err := linesOf(ctx, r.DB, ids)
		if err != nil {
			return paging.Page[Order]{}, err
		}
		for i := range content {
			content[i].Lines = lines[content[i].ID]
		}
	}
	return paging.New(content, total, req), nil
}

// linesOf loads the lines of the given orders with the item name and the
// representative image, in insertion order.
func linesOf(ctx context.Context, q querier, orderIDs []int64) (map[int64][]OrderLine, error) {
	rows, err := q.Query(ctx, `
		SELECT l.order_id, l.item_id, i.name, l.quantity, l.unit_price, COALESCE(img.url, '')
		FROM order_lines l
		JOIN items i ON i.id = l.item_id
		LEFT JOIN item_images img ON img.item_id = l.item_id AND img.representative
		WHERE l.order_id = ANY($1)
		ORDER BY l.order_id, l.id`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]OrderLine, len(orderIDs))
	for rows.Next() {
		var orderID int64
		var l OrderLine
		if err := rows.Scan(&orderID, &l.ItemID, &l.ItemName, &l.Quantity, &l.UnitPrice, &l.ImageURL); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], l)
	}
	return out, rows.Err()
}
