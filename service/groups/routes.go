package groups

import (
    "encoding/json"
    "net/http"

    "github.com/asiedu-dev/inkwell-server/cmd/models"
    "github.com/asiedu-dev/inkwell-server/cmd/utils"
    "github.com/gorilla/mux"
    "gorm.io/gorm"
)

type GroupHandler struct {
    db *gorm.DB
}

func NewGroupHandler(db *gorm.DB) *GroupHandler {
    return &GroupHandler{db: db}
}

func (h *GroupHandler) RegisterRoutes(router *mux.Router) {
    router.HandleFunc("/groups", h.GetGroups).Methods("GET")
    router.HandleFunc("/groups/{slug}", h.GetGroupFeed).Methods("GET")
}

// GetGroups lists every group.
func (h *GroupHandler) GetGroups(w http.ResponseWriter, r *http.Request) {
    var groups []models.Group
    if err := h.db.Order("title ASC").Find(&groups).Error; err != nil {
        http.Error(w, "Error retrieving groups", http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{
        "groups": groups,
    })
}

// GetGroupFeed returns the group's posts, newest first. Always reads live;
// group feeds are never cached.
func (h *GroupHandler) GetGroupFeed(w http.ResponseWriter, r *http.Request) {
    vars := mux.Vars(r)

    var group models.Group
    if err := h.db.Where("slug = ?", vars["slug"]).First(&group).Error; err != nil {
        http.Error(w, "Group not found", http.StatusNotFound)
        return
    }

    page := utils.PageParam(r)

    var posts []models.Post
    query := h.db.Model(&models.Post{}).Where("group_id = ?", group.ID).
        Preload("Author").Order("created_at DESC, id DESC")
    meta, err := utils.Paginate(query, page, &posts)
    if err != nil {
        http.Error(w, "Error retrieving posts", http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{
        "group":       group,
        "posts":       posts,
        "page":        meta.Page,
        "page_size":   meta.PageSize,
        "total":       meta.Total,
        "total_pages": meta.TotalPages,
    })
}
