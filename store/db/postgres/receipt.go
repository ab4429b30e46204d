package postgres

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/noa10/mataresit-app-sub001/store"
)

const receiptColumns = `
	id, uid, user_id, team_id, merchant, COALESCE(category, ''),
	COALESCE(full_text, ''), COALESCE(notes, ''), COALESCE(items_description, ''),
	total, currency, date, created_ts`

// Must stay in sync with receiptColumns and scanReceipt.
const receiptColumnsAliased = `
	r.id, r.uid, r.user_id, r.team_id, r.merchant, COALESCE(r.category, ''),
	COALESCE(r.full_text, ''), COALESCE(r.notes, ''), COALESCE(r.items_description, ''),
	r.total, r.currency, r.date, r.created_ts`

// ListReceipts lists receipts from the external record store.
func (d *DB) ListReceipts(ctx context.Context, find *store.FindReceipt) ([]*store.Receipt, error) {
	where, args := []string{"1 = 1"}, []any{}

	if len(find.IDs) > 0 {
		ph := make([]string, 0, len(find.IDs))
		for _, id := range find.IDs {
			args = append(args, id)
			ph = append(ph, placeholder(len(args)))
		}
		where = append(where, "id IN ("+strings.Join(ph, ", ")+")")
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *find.UserID)
	}
	if find.TeamID != nil {
		where, args = append(where, "team_id = "+placeholder(len(args)+1)), append(args, *find.TeamID)
	}
	if find.DateFrom != nil {
		where, args = append(where, "date >= "+placeholder(len(args)+1)), append(args, *find.DateFrom)
	}
	if find.DateTo != nil {
		where, args = append(where, "date <= "+placeholder(len(args)+1)), append(args, *find.DateTo)
	}
	if find.AmountMin != nil {
		where, args = append(where, "total >= "+placeholder(len(args)+1)), append(args, *find.AmountMin)
	}
	if find.AmountMax != nil {
		where, args = append(where, "total <= "+placeholder(len(args)+1)), append(args, *find.AmountMax)
	}
	if find.Currency != nil {
		where, args = append(where, "currency = "+placeholder(len(args)+1)), append(args, *find.Currency)
	}
	if len(find.Merchants) > 0 {
		ph := make([]string, 0, len(find.Merchants))
		for _, m := range find.Merchants {
			args = append(args, m)
			ph = append(ph, placeholder(len(args)))
		}
		where = append(where, "merchant IN ("+strings.Join(ph, ", ")+")")
	}

	query := `
		SELECT ` + receiptColumns + `
		FROM receipt
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY date DESC, created_ts DESC
	`
	if find.Limit > 0 {
		args = append(args, find.Limit)
		query += " LIMIT " + placeholder(len(args))
		if find.Offset > 0 {
			args = append(args, find.Offset)
			query += " OFFSET " + placeholder(len(args))
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list receipts")
	}
	defer rows.Close()

	list := []*store.Receipt{}
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan receipt")
		}
		list = append(list, receipt)
	}

	return list, rows.Err()
}

// ListReceiptsMissingContent finds receipts with a legacy embedding but
// no unified content entry for the given content type.
func (d *DB) ListReceiptsMissingContent(ctx context.Context, contentType string, limit int) ([]*store.Receipt, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT ` + receiptColumnsAliased + `
		FROM receipt r
		INNER JOIN receipt_embedding le ON le.receipt_id = r.id
		LEFT JOIN unified_content uc
			ON uc.source_type = 'receipt'
			AND uc.source_id = r.id
			AND uc.content_type = ` + placeholder(1) + `
		WHERE uc.id IS NULL
		ORDER BY r.created_ts DESC
		LIMIT ` + placeholder(2)

	rows, err := d.db.QueryContext(ctx, query, contentType, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list receipts missing content")
	}
	defer rows.Close()

	list := []*store.Receipt{}
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan receipt")
		}
		list = append(list, receipt)
	}

	return list, rows.Err()
}

func scanReceipt(row rowScanner) (*store.Receipt, error) {
	var r store.Receipt
	err := row.Scan(
		&r.ID, &r.UID, &r.UserID, &r.TeamID, &r.Merchant, &r.Category,
		&r.FullText, &r.Notes, &r.ItemsDescription,
		&r.Total, &r.Currency, &r.Date, &r.CreatedTs,
	)
	if err != nil {
		return nil, err
	}
	r.Date = r.Date.UTC()
	return &r, nil
}
