package identity

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Owner: identitas opaque yg dipakai cart & checkout buat isolasi state.
// Registered atau guest, tidak pernah dua-duanya.
type Owner struct {
	Key   string
	Guest bool
	Email string
}

func ForUser(id, email string) Owner {
	return Owner{Key: "user:" + id, Email: email}
}

func ForGuest(id string) Owner {
	return Owner{Key: "guest:" + id, Guest: true}
}

// Parse: pecah owner key jadi (userID, guestID); salah satu selalu kosong.
func Parse(key string) (userID, guestID string) {
	if v, ok := strings.CutPrefix(key, "user:"); ok {
		return v, ""
	}
	if v, ok := strings.CutPrefix(key, "guest:"); ok {
		return "", v
	}
	return "", key
}

const guestCookie = "guest_id"

// Resolver: auth middleware di luar scope sudah memverifikasi user; di sini
// tinggal baca hasilnya. Tanpa user -> identitas guest dari cookie (di-mint
// kalau belum ada).
type Resolver struct{}

func (Resolver) Resolve(w http.ResponseWriter, r *http.Request) Owner {
	if uid := r.Header.Get("X-User-ID"); uid != "" {
		return ForUser(uid, r.Header.Get("X-User-Email"))
	}
	if c, err := r.Cookie(guestCookie); err == nil && c.Value != "" {
		return ForGuest(c.Value)
	}
	gid := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     guestCookie,
		Value:    gid,
		Path:     "/",
		Expires:  time.Now().Add(30 * 24 * time.Hour),
		HttpOnly: true,
	})
	return ForGuest(gid)
}
