package store

import (
	"context"

	"github.com/rs/zerolog"

	"shokken/database"
	"shokken/datasource"
	"shokken/model"
)

// Fees は検査料金マスタのファサードです。料金計算そのものは対象外で、
// ここはマスタのCRUDだけを扱います。
type Fees struct {
	ds  datasource.DataSource
	log zerolog.Logger
}

// GetAll は料金一覧を返します。失敗時は空スライスです。
func (s *Fees) GetAll(ctx context.Context) []model.Fee {
	var fees []model.Fee
	if err := s.ds.Select(ctx, &fees, database.FeesAll()); err != nil {
		fail(s.log, "fees.getAll", err)
		return []model.Fee{}
	}
	if fees == nil {
		fees = []model.Fee{}
	}
	return fees
}

// GetByCategory は分類ごとの料金一覧です。
func (s *Fees) GetByCategory(ctx context.Context, category string) []model.Fee {
	var fees []model.Fee
	if err := s.ds.Select(ctx, &fees, database.FeesByCategory(category)); err != nil {
		fail(s.log, "fees.getByCategory", err)
		return []model.Fee{}
	}
	if fees == nil {
		fees = []model.Fee{}
	}
	return fees
}

// Create は料金を登録し新規IDを返します。失敗時は 0 です。
func (s *Fees) Create(ctx context.Context, f model.Fee) int64 {
	id, err := s.ds.Create(ctx, database.FeeCreate(f))
	if err != nil {
		fail(s.log, "fees.create", err)
		return 0
	}
	return id
}

// Update は料金を更新します。
func (s *Fees) Update(ctx context.Context, f model.Fee) bool {
	if _, err := s.ds.Exec(ctx, database.FeeUpdate(f)); err != nil {
		fail(s.log, "fees.update", err)
		return false
	}
	return true
}

// Delete は料金を削除します。
func (s *Fees) Delete(ctx context.Context, id int64) bool {
	if _, err := s.ds.Exec(ctx, database.FeeDelete(id)); err != nil {
		fail(s.log, "fees.delete", err)
		return false
	}
	return true
}
