package store

import (
	"context"

	"github.com/rs/zerolog"

	"shokken/database"
	"shokken/datasource"
	"shokken/model"
)

// Clients は依頼元管理のファサードです。
type Clients struct {
	ds  datasource.DataSource
	log zerolog.Logger
}

// GetAll は依頼元一覧を返します。失敗時は空スライスです。
func (s *Clients) GetAll(ctx context.Context) []model.Client {
	var clients []model.Client
	if err := s.ds.Select(ctx, &clients, database.ClientsAll()); err != nil {
		fail(s.log, "clients.getAll", err)
		return []model.Client{}
	}
	if clients == nil {
		clients = []model.Client{}
	}
	return clients
}

// GetByID は依頼元を1件返します。
func (s *Clients) GetByID(ctx context.Context, id int64) *model.Client {
	var c model.Client
	if err := s.ds.Get(ctx, &c, database.ClientByID(id)); err != nil {
		if err != datasource.ErrNotFound {
			fail(s.log, "clients.getByID", err)
		}
		return nil
	}
	return &c
}

// Search はキーワード検索です。入力は全角半角を畳み込んでから照合します。
func (s *Clients) Search(ctx context.Context, keyword string) []model.Client {
	keyword = normalizeKeyword(keyword)
	if keyword == "" {
		return s.GetAll(ctx)
	}
	var clients []model.Client
	if err := s.ds.Select(ctx, &clients, database.ClientsSearch(keyword)); err != nil {
		fail(s.log, "clients.search", err)
		return []model.Client{}
	}
	if clients == nil {
		clients = []model.Client{}
	}
	return clients
}

// Create は依頼元を登録し新規IDを返します。失敗時は 0 です。
func (s *Clients) Create(ctx context.Context, c model.Client) int64 {
	id, err := s.ds.Create(ctx, database.ClientCreate(c))
	if err != nil {
		fail(s.log, "clients.create", err)
		return 0
	}
	return id
}

// Update は依頼元を更新します。
func (s *Clients) Update(ctx context.Context, c model.Client) bool {
	if _, err := s.ds.Exec(ctx, database.ClientUpdate(c)); err != nil {
		fail(s.log, "clients.update", err)
		return false
	}
	return true
}

// Delete は依頼元を削除します。
func (s *Clients) Delete(ctx context.Context, id int64) bool {
	if _, err := s.ds.Exec(ctx, database.ClientDelete(id)); err != nil {
		fail(s.log, "clients.delete", err)
		return false
	}
	return true
}
