package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"victoria-bet/internal/shared/model"
	"victoria-bet/internal/shared/storage"
)

const accountColumns = `id, full_name, email, phone, role, is_active, is_pending_approval,
	 expiration_date, payment_proof, ai_validated, password_hash, created_at`

// scanAccount 从一行记录扫描账户
func scanAccount(row interface{ Scan(...any) error }) (*model.Account, error) {
	a := &model.Account{}
	var exp sql.NullTime
	if err := row.Scan(&a.ID, &a.FullName, &a.Email, &a.Phone, &a.Role,
		&a.IsActive, &a.IsPendingApproval, &exp,
		&a.PaymentProof, &a.AIValidated, &a.PasswordHash, &a.CreatedAt); err != nil {
		return nil, err
	}
	if exp.Valid {
		t := exp.Time
		a.ExpirationDate = &t
	}
	return a, nil
}

// ListAccounts 按创建时间倒序列出全部账户
func (s *Store) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC`))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// FindAccountByEmail 通过邮箱查找账户（大小写不敏感）
func (s *Store) FindAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+accountColumns+` FROM accounts WHERE LOWER(email) = LOWER($1)`), email)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// CreateAccount 创建账户
// 邮箱统一小写入库；唯一键冲突映射为 storage.ErrDuplicate
func (s *Store) CreateAccount(ctx context.Context, a *model.Account) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`),
		a.ID, a.FullName, strings.ToLower(a.Email), a.Phone, a.Role,
		a.IsActive, a.IsPendingApproval, a.ExpirationDate,
		a.PaymentProof, a.AIValidated, a.PasswordHash, a.CreatedAt,
	)
	if err != nil {
		if s.dialect.IsDuplicateErr(err) {
			return storage.ErrDuplicate
		}
		return err
	}
	return nil
}

// UpdateAccount 部分更新账户
// 补丁为空或 id 不存在时为 no-op
func (s *Store) UpdateAccount(ctx context.Context, id string, patch *model.AccountPatch) error {
	if patch == nil || patch.IsEmpty() {
		return nil
	}

	var sets []string
	var args []any
	n := 1
	set := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
		n++
	}

	if patch.FullName != nil {
		set("full_name", *patch.FullName)
	}
	if patch.Phone != nil {
		set("phone", *patch.Phone)
	}
	if patch.IsActive != nil {
		set("is_active", *patch.IsActive)
	}
	if patch.IsPendingApproval != nil {
		set("is_pending_approval", *patch.IsPendingApproval)
	}
	if patch.ExpirationDate != nil {
		set("expiration_date", *patch.ExpirationDate)
	}
	if patch.PaymentProof != nil {
		set("payment_proof", *patch.PaymentProof)
	}
	if patch.AIValidated != nil {
		set("ai_validated", *patch.AIValidated)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE accounts SET %s WHERE id = $%d`, strings.Join(sets, ", "), n)
	_, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	return err
}
