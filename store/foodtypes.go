package store

import (
	"context"

	"github.com/rs/zerolog"

	"shokken/database"
	"shokken/datasource"
	"shokken/model"
)

// FoodTypes は食品類型マスタのファサードです。
type FoodTypes struct {
	ds  datasource.DataSource
	log zerolog.Logger
}

// GetAll は食品類型一覧を返します。失敗時は空スライスです。
func (s *FoodTypes) GetAll(ctx context.Context) []model.FoodType {
	var types []model.FoodType
	if err := s.ds.Select(ctx, &types, database.FoodTypesAll()); err != nil {
		fail(s.log, "foodTypes.getAll", err)
		return []model.FoodType{}
	}
	if types == nil {
		types = []model.FoodType{}
	}
	return types
}

// GetByID は食品類型を1件返します。
func (s *FoodTypes) GetByID(ctx context.Context, id int64) *model.FoodType {
	var ft model.FoodType
	if err := s.ds.Get(ctx, &ft, database.FoodTypeByID(id)); err != nil {
		if err != datasource.ErrNotFound {
			fail(s.log, "foodTypes.getByID", err)
		}
		return nil
	}
	return &ft
}

// Search は類型名・分類のキーワード検索です。
func (s *FoodTypes) Search(ctx context.Context, keyword string) []model.FoodType {
	keyword = normalizeKeyword(keyword)
	if keyword == "" {
		return s.GetAll(ctx)
	}
	var types []model.FoodType
	if err := s.ds.Select(ctx, &types, database.FoodTypesSearch(keyword)); err != nil {
		fail(s.log, "foodTypes.search", err)
		return []model.FoodType{}
	}
	if types == nil {
		types = []model.FoodType{}
	}
	return types
}

// Create は食品類型を登録し新規IDを返します。失敗時は 0 です。
func (s *FoodTypes) Create(ctx context.Context, ft model.FoodType) int64 {
	id, err := s.ds.Create(ctx, database.FoodTypeCreate(ft))
	if err != nil {
		fail(s.log, "foodTypes.create", err)
		return 0
	}
	return id
}

// Update は食品類型を更新します。
func (s *FoodTypes) Update(ctx context.Context, ft model.FoodType) bool {
	if _, err := s.ds.Exec(ctx, database.FoodTypeUpdate(ft)); err != nil {
		fail(s.log, "foodTypes.update", err)
		return false
	}
	return true
}

// Delete は食品類型を削除します。
func (s *FoodTypes) Delete(ctx context.Context, id int64) bool {
	if _, err := s.ds.Exec(ctx, database.FoodTypeDelete(id)); err != nil {
		fail(s.log, "foodTypes.delete", err)
		return false
	}
	return true
}
