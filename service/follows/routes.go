package follows

import (
    "encoding/json"
    "errors"
    "fmt"
    "net/http"

    "github.com/asiedu-dev/inkwell-server/cmd/models"
    "github.com/asiedu-dev/inkwell-server/cmd/utils"
    "github.com/gorilla/mux"
    "gorm.io/gorm"
)

type FollowHandler struct {
    db *gorm.DB
}

func NewFollowHandler(db *gorm.DB) *FollowHandler {
    return &FollowHandler{db: db}
}

func (h *FollowHandler) RegisterRoutes(router *mux.Router) {
    router.HandleFunc("/follow", utils.RequireLogin(h.GetFollowingFeed)).Methods("GET")
    router.HandleFunc("/users/{username}/follow", utils.RequireLogin(h.Follow)).Methods("POST")
    router.HandleFunc("/users/{username}/unfollow", utils.RequireLogin(h.Unfollow)).Methods("POST")
}

// GetFollowingFeed returns posts by every author the caller follows,
// newest first. No follows means an empty feed, not an error.
func (h *FollowHandler) GetFollowingFeed(w http.ResponseWriter, r *http.Request) {
    userID, err := utils.GetUserIDFromContext(r.Context())
    if err != nil {
        http.Error(w, "Unauthorized", http.StatusUnauthorized)
        return
    }

    page := utils.PageParam(r)

    followed := h.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", userID)

    var posts []models.Post
    query := h.db.Model(&models.Post{}).Where("author_id IN (?)", followed).
        Preload("Author").Preload("Group").Order("created_at DESC, id DESC")
    meta, err := utils.Paginate(query, page, &posts)
    if err != nil {
        http.Error(w, "Error retrieving posts", http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{
        "posts":       posts,
        "page":        meta.Page,
        "page_size":   meta.PageSize,
        "total":       meta.Total,
        "total_pages": meta.TotalPages,
    })
}

// Follow creates the edge unless it already exists. Duplicate attempts and
// self-follows are no-ops; either way the caller lands back on the profile.
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
    userID, err := utils.GetUserIDFromContext(r.Context())
    if err != nil {
        http.Error(w, "Unauthorized", http.StatusUnauthorized)
        return
    }

    author, ok := h.lookupAuthor(w, r)
    if !ok {
        return
    }

    if author.ID != userID {
        var existing models.Follow
        err := h.db.Where("user_id = ? AND author_id = ?", userID, author.ID).First(&existing).Error
        if errors.Is(err, gorm.ErrRecordNotFound) {
            follow := models.Follow{UserID: userID, AuthorID: author.ID}
            if err := h.db.Create(&follow).Error; err != nil {
                http.Error(w, "Error creating follow", http.StatusInternalServerError)
                return
            }
        } else if err != nil {
            http.Error(w, "Error creating follow", http.StatusInternalServerError)
            return
        }
    }

    http.Redirect(w, r, profilePath(author.Username), http.StatusSeeOther)
}

// Unfollow removes the edge if present; absent edges are a no-op.
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
    userID, err := utils.GetUserIDFromContext(r.Context())
    if err != nil {
        http.Error(w, "Unauthorized", http.StatusUnauthorized)
        return
    }

    author, ok := h.lookupAuthor(w, r)
    if !ok {
        return
    }

    if err := h.db.Where("user_id = ? AND author_id = ?", userID, author.ID).
        Delete(&models.Follow{}).Error; err != nil {
        http.Error(w, "Error removing follow", http.StatusInternalServerError)
        return
    }

    http.Redirect(w, r, profilePath(author.Username), http.StatusSeeOther)
}

func (h *FollowHandler) lookupAuthor(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
    vars := mux.Vars(r)

    var author models.User
    if err := h.db.Where("username = ?", vars["username"]).First(&author).Error; err != nil {
        http.Error(w, "User not found", http.StatusNotFound)
        return nil, false
    }
    return &author, true
}

func profilePath(username string) string {
    return fmt.Sprintf("%s/users/%s", utils.APIPrefix, username)
}
