package follows

import (
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/asiedu-dev/inkwell-server/cmd/models"
    "github.com/asiedu-dev/inkwell-server/cmd/utils"
    "github.com/asiedu-dev/inkwell-server/service/users"
    "github.com/glebarez/sqlite"
    "github.com/gorilla/mux"
    "gorm.io/gorm"
    "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
    t.Helper()
    db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
        Logger: logger.Default.LogMode(logger.Silent),
    })
    if err != nil {
        t.Fatalf("open test db: %v", err)
    }
    sqlDB, err := db.DB()
    if err != nil {
        t.Fatalf("unwrap test db: %v", err)
    }
    sqlDB.SetMaxOpenConns(1)

    if err := db.AutoMigrate(&models.User{}, &models.Group{}, &models.Post{},
        &models.Comment{}, &models.Follow{}); err != nil {
        t.Fatalf("migrate test db: %v", err)
    }
    return db
}

func newTestRouter(db *gorm.DB) *mux.Router {
    router := mux.NewRouter()
    sub := router.PathPrefix(utils.APIPrefix).Subrouter()
    NewFollowHandler(db).RegisterRoutes(sub)
    return router
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
    t.Helper()
    user := models.User{
        Username:     username,
        Email:        username + "@example.com",
        PasswordHash: "x",
    }
    if err := db.Create(&user).Error; err != nil {
        t.Fatalf("create user %s: %v", username, err)
    }
    return &user
}

func authHeader(t *testing.T, userID uint) string {
    t.Helper()
    token, err := users.GenerateJWT(userID, time.Hour)
    if err != nil {
        t.Fatalf("generate token: %v", err)
    }
    return "Bearer " + token
}

func do(router *mux.Router, method, target, auth string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, target, nil)
    if auth != "" {
        req.Header.Set("Authorization", auth)
    }
    rec := httptest.NewRecorder()
    router.ServeHTTP(rec, req)
    return rec
}

func followEdgeCount(t *testing.T, db *gorm.DB, userID, authorID uint) int64 {
    t.Helper()
    var count int64
    db.Model(&models.Follow{}).
        Where("user_id = ? AND author_id = ?", userID, authorID).Count(&count)
    return count
}

func TestFollowIsIdempotent(t *testing.T) {
    t.Setenv("SECRET_KEY", "test-secret")
    db := setupTestDB(t)
    router := newTestRouter(db)
    user := createUser(t, db, "mia")
    author := createUser(t, db, "leo")

    for i := 0; i < 2; i++ {
        rec := do(router, http.MethodPost, "/api/v1/users/leo/follow", authHeader(t, user.ID))
        if rec.Code != http.StatusSeeOther {
            t.Fatalf("follow attempt %d: expected 303, got %d", i+1, rec.Code)
        }
        if loc := rec.Header().Get("Location"); loc != "/api/v1/users/leo" {
            t.Fatalf("expected redirect to profile, got %q", loc)
        }
    }

    if n := followEdgeCount(t, db, user.ID, author.ID); n != 1 {
        t.Fatalf("expected exactly 1 follow edge, got %d", n)
    }

    // unfollow then re-follow must land back on exactly one edge
    if rec := do(router, http.MethodPost, "/api/v1/users/leo/unfollow", authHeader(t, user.ID)); rec.Code != http.StatusSeeOther {
        t.Fatalf("unfollow: status %d", rec.Code)
    }
    if n := followEdgeCount(t, db, user.ID, author.ID); n != 0 {
        t.Fatalf("expected edge removed, got %d", n)
    }
    if rec := do(router, http.MethodPost, "/api/v1/users/leo/follow", authHeader(t, user.ID)); rec.Code != http.StatusSeeOther {
        t.Fatalf("re-follow: status %d", rec.Code)
    }
    if n := followEdgeCount(t, db, user.ID, author.ID); n != 1 {
        t.Fatalf("expected exactly 1 follow edge after re-follow, got %d", n)
    }
}

func TestUnfollowAbsentEdgeIsNoop(t *testing.T) {
    t.Setenv("SECRET_KEY", "test-secret")
    db := setupTestDB(t)
    router := newTestRouter(db)
    user := createUser(t, db, "mia")
    createUser(t, db, "leo")

    rec := do(router, http.MethodPost, "/api/v1/users/leo/unfollow", authHeader(t, user.ID))
    if rec.Code != http.StatusSeeOther {
        t.Fatalf("expected 303, got %d", rec.Code)
    }

    var count int64
    db.Model(&models.Follow{}).Count(&count)
    if count != 0 {
        t.Fatalf("expected no edges, got %d", count)
    }
}

func TestSelfFollowIsNoop(t *testing.T) {
    t.Setenv("SECRET_KEY", "test-secret")
    db := setupTestDB(t)
    router := newTestRouter(db)
    user := createUser(t, db, "mia")

    rec := do(router, http.MethodPost, "/api/v1/users/mia/follow", authHeader(t, user.ID))
    if rec.Code != http.StatusSeeOther {
        t.Fatalf("expected 303, got %d", rec.Code)
    }

    var count int64
    db.Model(&models.Follow{}).Count(&count)
    if count != 0 {
        t.Fatalf("self-follow created an edge")
    }
}

func TestFollowUnknownAuthor(t *testing.T) {
    t.Setenv("SECRET_KEY", "test-secret")
    db := setupTestDB(t)
    router := newTestRouter(db)
    user := createUser(t, db, "mia")

    rec := do(router, http.MethodPost, "/api/v1/users/nobody/follow", authHeader(t, user.ID))
    if rec.Code != http.StatusNotFound {
        t.Fatalf("expected 404, got %d", rec.Code)
    }
}

func TestFollowUnauthenticated(t *testing.T) {
    t.Setenv("SECRET_KEY", "test-secret")
    db := setupTestDB(t)
    router := newTestRouter(db)
    createUser(t, db, "leo")

    rec := do(router, http.MethodPost, "/api/v1/users/leo/follow", "")
    if rec.Code != http.StatusFound {
        t.Fatalf("expected 302, got %d", rec.Code)
    }
    if !strings.HasPrefix(rec.Header().Get("Location"), "/login?next=") {
        t.Fatalf("expected login redirect, got %q", rec.Header().Get("Location"))
    }

    var count int64
    db.Model(&models.Follow{}).Count(&count)
    if count != 0 {
        t.Fatalf("expected no edges, got %d", count)
    }
}

func TestFollowingFeed(t *testing.T) {
    t.Setenv("SECRET_KEY", "test-secret")
    db := setupTestDB(t)
    router := newTestRouter(db)
    user := createUser(t, db, "mia")
    author := createUser(t, db, "leo")
    stranger := createUser(t, db, "zed")

    if err := db.Create(&models.Post{Text: "by leo", AuthorID: author.ID}).Error; err != nil {
        t.Fatalf("create post: %v", err)
    }
    if err := db.Create(&models.Post{Text: "by zed", AuthorID: stranger.ID}).Error; err != nil {
        t.Fatalf("create post: %v", err)
    }

    fetch := func() []models.Post {
        rec := do(router, http.MethodGet, "/api/v1/follow", authHeader(t, user.ID))
        if rec.Code != http.StatusOK {
            t.Fatalf("following feed: status %d", rec.Code)
        }
        var resp struct {
            Posts []models.Post `json:"posts"`
        }
        if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
            t.Fatalf("decode feed: %v", err)
        }
        return resp.Posts
    }

    // no follows yet: empty feed, not an error
    if posts := fetch(); len(posts) != 0 {
        t.Fatalf("expected empty feed, got %d posts", len(posts))
    }

    if rec := do(router, http.MethodPost, "/api/v1/users/leo/follow", authHeader(t, user.ID)); rec.Code != http.StatusSeeOther {
        t.Fatalf("follow: status %d", rec.Code)
    }

    posts := fetch()
    if len(posts) != 1 {
        t.Fatalf("expected 1 post after follow, got %d", len(posts))
    }
    if posts[0].Text != "by leo" {
        t.Fatalf("wrong post in following feed: %q", posts[0].Text)
    }

    if rec := do(router, http.MethodPost, "/api/v1/users/leo/unfollow", authHeader(t, user.ID)); rec.Code != http.StatusSeeOther {
        t.Fatalf("unfollow: status %d", rec.Code)
    }

    if posts := fetch(); len(posts) != 0 {
        t.Fatalf("expected empty feed after unfollow, got %d posts", len(posts))
    }
}
