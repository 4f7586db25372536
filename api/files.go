package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// ファイル転送は汎用のJSONリトライ経路を通しません。読み取りタイムアウトを
// 60秒に延ばした専用クライアントで1回だけ試行し、失敗しても例外にせず
// (成功フラグ, メッセージ) を返します。呼び出し側のUI処理を単純にするためです。

// UploadAttachment は検査予定に添付ファイルをアップロードします。
func (c *Client) UploadAttachment(ctx context.Context, scheduleID int64, fileName string, r io.Reader) (bool, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return false, "アップロードデータの作成に失敗しました: " + err.Error()
	}
	if _, err := io.Copy(part, r); err != nil {
		return false, "ファイルの読み取りに失敗しました: " + err.Error()
	}
	if err := mw.Close(); err != nil {
		return false, "アップロードデータの作成に失敗しました: " + err.Error()
	}

	reqURL := fmt.Sprintf("%s/api/schedules/%d/attachments", c.BaseURL(), scheduleID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, &buf)
	if err != nil {
		return false, "リクエストの作成に失敗しました: " + err.Error()
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token := c.sess.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.filec.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Int64("schedule_id", scheduleID).Msg("attachment upload failed")
		return false, "ファイルのアップロードに失敗しました"
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.sess.clear()
		return false, ErrSessionExpired.Error()
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return false, "サーバー応答の解析に失敗しました"
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "ファイルのアップロードに失敗しました"
		}
		return false, msg
	}
	c.log.Info().Int64("schedule_id", scheduleID).Str("file", fileName).Msg("attachment uploaded")
	return true, env.Message
}

// DownloadAttachment は添付ファイルをダウンロードして w へ書き込みます。
func (c *Client) DownloadAttachment(ctx context.Context, attachmentID int64, w io.Writer) (bool, string) {
	reqURL := fmt.Sprintf("%s/api/attachments/%d", c.BaseURL(), attachmentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, "リクエストの作成に失敗しました: " + err.Error()
	}
	if token := c.sess.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.filec.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Int64("attachment_id", attachmentID).Msg("attachment download failed")
		return false, "ファイルのダウンロードに失敗しました"
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.sess.clear()
		return false, ErrSessionExpired.Error()
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Sprintf("ファイルのダウンロードに失敗しました (status %d)", resp.StatusCode)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return false, "ファイルの保存に失敗しました: " + err.Error()
	}
	c.log.Info().Int64("attachment_id", attachmentID).Msg("attachment downloaded")
	return true, ""
}
