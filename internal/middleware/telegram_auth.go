package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"rifas-admin/internal/auth"
)

type TelegramUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// Admin identifies who passed the gate.
type Admin struct {
	Name   string
	Method string // "session", "basic" or "telegram"
}

type ctxKey struct{}

// AdminFrom returns the admin stored by AdminAuth.
func AdminFrom(ctx context.Context) (Admin, bool) {
	a, ok := ctx.Value(ctxKey{}).(Admin)
	return a, ok
}

type AdminAuthConfig struct {
	AdminPassword string
	BotToken      string
	AdminIDs      string
	Tokens        *auth.TokenIssuer
	LoginPath     string
}

// AdminAuth accepts a session token, BasicAuth, or Telegram WebApp initData.
func AdminAuth(cfg AdminAuthConfig, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	adminIDs := parseAdminIDs(cfg.AdminIDs)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Método 1: sesión emitida por /admin/login
			if claims := sessionClaims(r, cfg.Tokens); claims != nil {
				next.ServeHTTP(w, withAdmin(r, Admin{Name: claims.Email, Method: "session"}))
				return
			}

			// Método 2: BasicAuth
			if checkBasicAuth(r, cfg.AdminPassword) {
				next.ServeHTTP(w, withAdmin(r, Admin{Name: "admin", Method: "basic"}))
				return
			}

			// Método 3: Telegram initData
			if initData := telegramInitData(r); initData != "" {
				user, valid := ValidateTelegramInitData(initData, cfg.BotToken)
				switch {
				case !valid:
					log.Warnw("invalid telegram initData", "path", r.URL.Path)
				case !adminIDs[user.ID]:
					log.Warnw("telegram user is not an admin", "telegram_id", user.ID)
				default:
					log.Debugw("telegram admin authenticated", "telegram_id", user.ID, "name", user.FirstName)
					next.ServeHTTP(w, withAdmin(r, Admin{Name: user.FirstName, Method: "telegram"}))
					return
				}
			}

			if cfg.LoginPath != "" && r.Method == http.MethodGet && r.Header.Get("HX-Request") == "" &&
				strings.Contains(r.Header.Get("Accept"), "text/html") {
				http.Redirect(w, r, cfg.LoginPath, http.StatusSeeOther)
				return
			}
			w.Header().Set("WWW-Authenticate", `Basic realm="Rifas Admin"`)
			http.Error(w, "Acceso denegado: No autorizado", http.StatusUnauthorized)
		})
	}
}

func withAdmin(r *http.Request, a Admin) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxKey{}, a))
}

func sessionClaims(r *http.Request, tokens *auth.TokenIssuer) *auth.Claims {
	if tokens == nil {
		return nil
	}
	raw := ""
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		raw = strings.TrimPrefix(h, "Bearer ")
	} else if c, err := r.Cookie(auth.CookieName); err == nil {
		raw = c.Value
	}
	if raw == "" {
		return nil
	}
	claims, err := tokens.Parse(raw)
	if err != nil {
		return nil
	}
	return claims
}

func checkBasicAuth(r *http.Request, expectedPassword string) bool {
	if expectedPassword == "" {
		return false
	}
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	return user == "admin" && subtle.ConstantTimeCompare([]byte(pass), []byte(expectedPassword)) == 1
}

func telegramInitData(r *http.Request) string {
	initData := r.Header.Get("X-Telegram-Init-Data")
	if initData == "" {
		initData = r.URL.Query().Get("tg_init_data")
	}
	if initData == "" {
		if cookie, err := r.Cookie("tg_init_data"); err == nil {
			if decoded, err := url.QueryUnescape(cookie.Value); err == nil {
				initData = decoded
			}
		}
	}
	return initData
}

// ValidateTelegramInitData checks the WebApp hash: HMAC-SHA256 of the sorted
// data-check-string keyed by HMAC-SHA256("WebAppData", botToken).
func ValidateTelegramInitData(initData, botToken string) (*TelegramUser, bool) {
	if botToken == "" {
		return nil, false
	}

	params, err := url.ParseQuery(initData)
	if err != nil {
		return nil, false
	}

	hash := params.Get("hash")
	if hash == "" {
		return nil, false
	}

	if !hmac.Equal([]byte(telegramHash(params, botToken)), []byte(hash)) {
		return nil, false
	}

	userJSON := params.Get("user")
	if userJSON == "" {
		return nil, false
	}

	var user TelegramUser
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, false
	}

	return &user, true
}

func telegramHash(params url.Values, botToken string) string {
	var keys []string
	for k := range params {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var dataCheckParts []string
	for _, k := range keys {
		dataCheckParts = append(dataCheckParts, k+"="+params.Get(k))
	}
	dataCheckString := strings.Join(dataCheckParts, "\n")

	secretKey := hmac.New(sha256.New, []byte("WebAppData"))
	secretKey.Write([]byte(botToken))

	h := hmac.New(sha256.New, secretKey.Sum(nil))
	h.Write([]byte(dataCheckString))
	return hex.EncodeToString(h.Sum(nil))
}

func parseAdminIDs(adminIDs string) map[int64]bool {
	ids := map[int64]bool{}
	for _, id := range strings.Split(adminIDs, ",") {
		id = strings.TrimSpace(id)
		if adminID, err := strconv.ParseInt(id, 10, 64); err == nil {
			ids[adminID] = true
		}
	}
	return ids
}

// AdminChatIDs exposes the configured Telegram admins for notifications.
func AdminChatIDs(adminIDs string) []int64 {
	set := parseAdminIDs(adminIDs)
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
