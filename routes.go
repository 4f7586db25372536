package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"shokken/logging"
	"shokken/model"
	"shokken/netmode"
)

// SetupRoutes はデスクトップシェルが叩くローカルJSONルートを登録します。
// ファサードが失敗を既定値に畳み込むため、ここでは原則 200 を返します。
func SetupRoutes(mux *http.ServeMux, app *appContext) {
	log := logging.WithComponent("routes")
	st := app.store

	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(v); err != nil {
			log.Warn().Err(err).Msg("failed to encode response")
		}
	}
	readJSON := func(w http.ResponseWriter, r *http.Request, dest any) bool {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return false
		}
		return true
	}
	pathID := func(r *http.Request, prefix string) int64 {
		id, _ := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, prefix), 10, 64)
		return id
	}
	record := func(r *http.Request, action, detail string) {
		user := st.Auth.CurrentUser()
		if user == nil {
			return
		}
		st.ActivityLogs.Record(r.Context(), user.ID, user.Username, action, detail)
	}

	mux.HandleFunc("/app/session", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"mode":          app.mode.String(),
			"user":          st.Auth.CurrentUser(),
			"version":       app.version,
			"unread":        app.unreadCount.Load(),
			"latestVersion": app.latestVersion.Load(),
		}
		if app.client != nil {
			resp["failedOver"] = app.client.FailedOver()
			resp["baseURL"] = app.client.BaseURL()
		}
		writeJSON(w, resp)
	})

	mux.HandleFunc("/app/mode", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Mode string `json:"mode"`
		}
		if !readJSON(w, r, &req) {
			return
		}
		if err := netmode.SetMode(req.Mode); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// 反映は次回起動から。現在のプロセスのモードは変わりません。
		writeJSON(w, map[string]any{"saved": true, "activeMode": app.mode.String()})
	})

	mux.HandleFunc("/app/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if !readJSON(w, r, &req) {
			return
		}
		user := st.Users.Login(r.Context(), req.Username, req.Password)
		if user != nil {
			record(r, "login", "")
		}
		writeJSON(w, map[string]any{"success": user != nil, "user": user})
	})

	mux.HandleFunc("/app/logout", func(w http.ResponseWriter, r *http.Request) {
		record(r, "logout", "")
		st.Users.Logout(r.Context())
		writeJSON(w, map[string]any{"success": true})
	})

	mux.HandleFunc("/app/users", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, st.Users.GetAll(r.Context()))
		case http.MethodPost:
			var req struct {
				model.User
				Password string `json:"password"`
			}
			if !readJSON(w, r, &req) {
				return
			}
			id := st.Users.Create(r.Context(), req.User, req.Password)
			if id > 0 {
				record(r, "user_create", req.Username)
			}
			writeJSON(w, map[string]any{"success": id > 0, "id": id})
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/app/users/password", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID       int64  `json:"id"`
			Password string `json:"password"`
		}
		if !readJSON(w, r, &req) {
			return
		}
		ok := st.Users.UpdatePassword(r.Context(), req.ID, req.Password)
		writeJSON(w, map[string]any{"success": ok})
	})

	mux.HandleFunc("/app/users/", func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r, "/app/users/")
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, st.Users.GetByID(r.Context(), id))
		case http.MethodPut:
			var u model.User
			if !readJSON(w, r, &u) {
				return
			}
			u.ID = id
			writeJSON(w, map[string]any{"success": st.Users.Update(r.Context(), u)})
		case http.MethodDelete:
			writeJSON(w, map[string]any{"success": st.Users.Delete(r.Context(), id)})
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/app/clients", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, st.Clients.GetAll(r.Context()))
		case http.MethodPost:
			var c model.Client
			if !readJSON(w, r, &c) {
				return
			}
			id := st.Clients.Create(r.Context(), c)
			if id > 0 {
				record(r, "client_create", c.Name)
			}
			writeJSON(w, map[string]any{"success": id > 0, "id": id})
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/app/clients/search", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, st.Clients.Search(r.Context(), r.URL.Query().Get("keyword")))
	})

	mux.HandleFunc("/app/clients/", func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r, "/app/clients/")
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, st.Clients.GetByID(r.Context(), id))
		case http.MethodPut:
			var c model.Client
			if !readJSON(w, r, &c) {
				return
			}
			c.ID = id
			writeJSON(w, map[string]any{"success": st.Clients.Update(r.Context(), c)})
		case http.MethodDelete:
			writeJSON(w, map[string]any{"success": st.Clients.Delete(r.Context(), id)})
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/app/schedules", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			q := r.URL.Query()
			if clientID, err := strconv.ParseInt(q.Get("clientId"), 10, 64); err == nil && clientID > 0 {
				writeJSON(w, st.Schedules.GetByClient(r.Context(), clientID))
				return
			}
			writeJSON(w, st.Schedules.GetAll(r.Context(), q.Get("from"), q.Get("to")))
		case http.MethodPost:
			var sc model.Schedule
			if !readJSON(w, r, &sc) {
				return
			}
			id := st.Schedules.Create(r.Context(), sc)
			if id > 0 {
				record(r, "schedule_create", sc.FoodName)
			}
			writeJSON(w, map[string]any{"success": id > 0, "id": id})
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/app/schedules/status", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int64  `json:"id"`
			Status string `json:"status"`
		}
		if !readJSON(w, r, &req) {
			return
		}
		ok := st.Schedules.UpdateStatus(r.Context(), req.ID, req.Status)
		if ok {
			record(r, "schedule_status", fmt.Sprintf("%d -> %s", req.ID, req.Status))
		}
		writeJSON(w, map[string]any{"success": ok})
	})

	mux.HandleFunc("/app/schedules/", func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r, "/app/schedules/")
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, st.Schedules.GetByID(r.Context(), id))
		case http.MethodPut:
			var sc model.Schedule
			if !readJSON(w, r, &sc) {
				return
			}
			sc.ID = id
			writeJSON(w, map[string]any{"success": st.Schedules.Update(r.Context(), sc)})
		case http.MethodDelete:
			ok := st.Schedules.Delete(r.Context(), id)
			if ok {
				record(r, "schedule_delete", strconv.FormatInt(id, 10))
			}
			writeJSON(w, map[string]any{"success": ok})
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/app/attachments", func(w http.ResponseWriter, r *http.Request) {
		scheduleID, _ := strconv.ParseInt(r.URL.Query().Get("scheduleId"), 10, 64)
		writeJSON(w, st.Schedules.ListAttachments(r.Context(), scheduleID))
	})

	mux.HandleFunc("/app/attachments/upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, "invalid multipart body", http.StatusBadRequest)
			return
		}
		scheduleID, _ := strconv.ParseInt(r.FormValue("scheduleId"), 10, 64)
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		ok, msg := st.Schedules.AddAttachment(r.Context(), scheduleID, header.Filename, file)
		if ok {
			record(r, "attachment_upload", header.Filename)
		}
		writeJSON(w, map[string]any{"success": ok, "message": msg})
	})

	mux.HandleFunc("/app/attachments/download/", func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r, "/app/attachments/download/")
		w.Header().Set("Content-Type", "application/octet-stream")
		if ok, msg := st.Schedules.GetAttachment(r.Context(), id, w); !ok {
			log.Warn().Int64("attachment_id", id).Str("reason", msg).Msg("attachment download failed")
		}
	})

	mux.HandleFunc("/app/fees", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if category := r.URL.Query().Get("category"); category != "" {
				writeJSON(w, st.Fees.GetByCategory(r.Context(), category))
				return
			}
			writeJSON(w, st.Fees.GetAll(r.Context()))
		case http.MethodPost:
			var f model.Fee
			if !readJSON(w, r, &f) {
				return
			}
			id := st.Fees.Create(r.Context(), f)
			writeJSON(w, map[string]any{"success": id > 0, "id": id})
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/app/fees/", func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r, "/app/fees/")
		switch r.Method {
		case http.MethodPut:
			var f model.Fee
			if !readJSON(w, r, &f) {
				return
			}
			f.ID = id
			writeJSON(w, map[string]any{"success": st.Fees.Update(r.Context(), f)})
		case http.MethodDelete:
			writeJSON(w, map[string]any{"success": st.Fees.Delete(r.Context(), id)})
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/app/foodtypes", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, st.FoodTypes.GetAll(r.Context()))
		case http.MethodPost:
			var ft model.FoodType
			if !readJSON(w, r, &ft) {
				return
			}
			id := st.FoodTypes.Create(r.Context(), ft)
			writeJSON(w, map[string]any{"success": id > 0, "id": id})
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/app/foodtypes/search", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, st.FoodTypes.Search(r.Context(), r.URL.Query().Get("keyword")))
	})

	mux.HandleFunc("/app/foodtypes/", func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r, "/app/foodtypes/")
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, st.FoodTypes.GetByID(r.Context(), id))
		case http.MethodPut:
			var ft model.FoodType
			if !readJSON(w, r, &ft) {
				return
			}
			ft.ID = id
			writeJSON(w, map[string]any{"success": st.FoodTypes.Update(r.Context(), ft)})
		case http.MethodDelete:
			writeJSON(w, map[string]any{"success": st.FoodTypes.Delete(r.Context(), id)})
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/app/settings", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if key := r.URL.Query().Get("key"); key != "" {
				writeJSON(w, map[string]string{"key": key, "value": st.Settings.Get(r.Context(), key)})
				return
			}
			writeJSON(w, st.Settings.GetAll(r.Context()))
		case http.MethodPost:
			var req struct {
				Key   string `json:"key"`
				Value string `json:"value"`
			}
			if !readJSON(w, r, &req) {
				return
			}
			writeJSON(w, map[string]any{"success": st.Settings.Set(r.Context(), req.Key, req.Value)})
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/app/usersettings", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			userID, _ := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
			writeJSON(w, st.Settings.GetUserSettings(r.Context(), userID))
		case http.MethodPost:
			var req struct {
				UserID int64  `json:"userId"`
				Key    string `json:"key"`
				Value  string `json:"value"`
			}
			if !readJSON(w, r, &req) {
				return
			}
			ok := st.Settings.SetUserSetting(r.Context(), req.UserID, req.Key, req.Value)
			writeJSON(w, map[string]any{"success": ok})
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/app/logs", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		if userID, err := strconv.ParseInt(q.Get("userId"), 10, 64); err == nil && userID > 0 {
			writeJSON(w, st.ActivityLogs.ListByUser(r.Context(), userID, limit))
			return
		}
		writeJSON(w, st.ActivityLogs.List(r.Context(), limit))
	})

	mux.HandleFunc("/app/messages", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			user := st.Auth.CurrentUser()
			if user == nil {
				writeJSON(w, []model.Message{})
				return
			}
			writeJSON(w, st.Messages.ListForUser(r.Context(), user.ID))
		case http.MethodPost:
			var m model.Message
			if !readJSON(w, r, &m) {
				return
			}
			if sender := st.Auth.CurrentUser(); sender != nil && m.SenderID == 0 {
				m.SenderID = sender.ID
				m.SenderName = sender.Name
			}
			id := st.Messages.Send(r.Context(), m)
			writeJSON(w, map[string]any{"success": id > 0, "id": id})
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/app/messages/read", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID int64 `json:"id"`
		}
		if !readJSON(w, r, &req) {
			return
		}
		writeJSON(w, map[string]any{"success": st.Messages.MarkRead(r.Context(), req.ID)})
	})

	mux.HandleFunc("/app/messages/delete", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID int64 `json:"id"`
		}
		if !readJSON(w, r, &req) {
			return
		}
		writeJSON(w, map[string]any{"success": st.Messages.Delete(r.Context(), req.ID)})
	})

	mux.HandleFunc("/app/notifications", func(w http.ResponseWriter, r *http.Request) {
		user := st.Auth.CurrentUser()
		unread := app.unreadCount.Load()
		if user != nil && r.URL.Query().Get("refresh") == "1" {
			unread = st.Messages.UnreadCount(r.Context(), user.ID)
			app.unreadCount.Store(unread)
		}
		writeJSON(w, map[string]any{
			"unread":        unread,
			"latestVersion": app.latestVersion.Load(),
		})
	})
}
