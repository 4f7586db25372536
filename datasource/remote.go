package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"shokken/api"
	"shokken/logging"
	"shokken/netmode"
)

// Remote は REST クライアント経由で操作を実行するデータソースです。
// エンベロープ {success, data} を剥がし、内部モードと同じ形で返します。
type Remote struct {
	client *api.Client
	log    zerolog.Logger
}

func NewRemote(client *api.Client) *Remote {
	return &Remote{
		client: client,
		log:    logging.WithComponent("datasource.remote"),
	}
}

func (r *Remote) Mode() netmode.Mode {
	return netmode.External
}

// Client は背後の REST クライアントを返します (認証ファサード用)。
func (r *Remote) Client() *api.Client {
	return r.client
}

func (r *Remote) call(ctx context.Context, op Op) (*api.Envelope, error) {
	env, err := r.client.Request(ctx, op.Method, op.Path, op.Body, op.Query)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "unknown server error"
		}
		return nil, fmt.Errorf("server rejected operation: %s", msg)
	}
	return env, nil
}

func (r *Remote) Select(ctx context.Context, dest any, op Op) error {
	env, err := r.call(ctx, op)
	if err != nil {
		return err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("malformed list payload: %w", err)
	}
	return nil
}

func (r *Remote) Get(ctx context.Context, dest any, op Op) error {
	env, err := r.call(ctx, op)
	if err != nil {
		return err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return ErrNotFound
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	return nil
}

func (r *Remote) Exec(ctx context.Context, op Op) (int64, error) {
	if _, err := r.call(ctx, op); err != nil {
		return 0, err
	}
	return 1, nil
}

func (r *Remote) Create(ctx context.Context, op Op) (int64, error) {
	env, err := r.call(ctx, op)
	if err != nil {
		return 0, err
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &created); err != nil {
			return 0, fmt.Errorf("malformed create payload: %w", err)
		}
	}
	if created.ID == 0 {
		return 0, errors.New("server did not return a new id")
	}
	return created.ID, nil
}

// Ensure は外部モードでは何もしません。スキーマ管理はAPIサーバー側の責務です。
func (r *Remote) Ensure(ctx context.Context, table, ddl string) error {
	return nil
}

func (r *Remote) UploadFile(ctx context.Context, f FileUpload) (bool, string) {
	return r.client.UploadAttachment(ctx, f.ScheduleID, f.FileName, f.Reader)
}

func (r *Remote) DownloadFile(ctx context.Context, f FileDownload) (bool, string) {
	return r.client.DownloadAttachment(ctx, f.AttachmentID, f.Writer)
}
