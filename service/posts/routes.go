package posts

import (
    "encoding/json"
    "fmt"
    "net/http"
    "strconv"
    "strings"

    "github.com/asiedu-dev/inkwell-server/cmd/models"
    "github.com/asiedu-dev/inkwell-server/cmd/utils"
    "github.com/gorilla/mux"
    "gorm.io/gorm"
)

// indexCacheKey holds the full global feed. Populated lazily on the first
// read, reused verbatim afterwards, and never invalidated by writes: a new
// post stays invisible on the index until an explicit cache clear.
const indexCacheKey = "index_page"

type PostHandler struct {
    db    *gorm.DB
    cache *utils.FeedCache
}

func NewPostHandler(db *gorm.DB, cache *utils.FeedCache) *PostHandler {
    return &PostHandler{db: db, cache: cache}
}

func (h *PostHandler) RegisterRoutes(router *mux.Router) {
    router.HandleFunc("/posts", h.GetFeed).Methods("GET")
    router.HandleFunc("/posts", utils.RequireLogin(h.CreatePost)).Methods("POST")
    router.HandleFunc("/posts/{id}", h.GetPost).Methods("GET")
    router.HandleFunc("/posts/{id}", utils.RequireLogin(h.UpdatePost)).Methods("PUT", "POST")
    router.HandleFunc("/posts/{id}", utils.RequireLogin(h.DeletePost)).Methods("DELETE")

    router.HandleFunc("/posts/{id}/comments", utils.RequireLogin(h.AddComment)).Methods("POST")
    router.HandleFunc("/posts/{id}/comments", h.GetComments).Methods("GET")

    router.HandleFunc("/cache/clear", utils.RequireAdmin(h.ClearFeedCache)).Methods("POST")
}

// GetFeed serves the global feed through the process cache.
func (h *PostHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
    page := utils.PageParam(r)

    var posts []models.Post
    if cached, ok := h.cache.Get(indexCacheKey); ok {
        posts, _ = cached.([]models.Post)
    }
    // an empty list never counts as a hit; the cache only ever holds a
    // non-empty feed
    if len(posts) == 0 {
        if err := h.db.Preload("Author").Preload("Group").
            Order("created_at DESC, id DESC").Find(&posts).Error; err != nil {
            http.Error(w, "Error retrieving posts", http.StatusInternalServerError)
            return
        }
        h.cache.Set(indexCacheKey, posts)
    }

    start, end, meta := utils.PageBounds(page, len(posts))

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{
        "posts":       posts[start:end],
        "page":        meta.Page,
        "page_size":   meta.PageSize,
        "total":       meta.Total,
        "total_pages": meta.TotalPages,
    })
}

// ClearFeedCache is the only way the global feed picks up writes.
func (h *PostHandler) ClearFeedCache(w http.ResponseWriter, r *http.Request) {
    h.cache.Clear()

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]string{
        "message": "Feed cache cleared",
    })
}

// GetPost retrieves a single post with its comments.
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
    vars := mux.Vars(r)
    postID, err := strconv.ParseUint(vars["id"], 10, 64)
    if err != nil {
        http.Error(w, "Invalid post ID", http.StatusBadRequest)
        return
    }

    var post models.Post
    if err := h.db.Preload("Author").Preload("Group").Preload("Comments.Author").
        First(&post, postID).Error; err != nil {
        http.Error(w, "Post not found", http.StatusNotFound)
        return
    }

    var postCount int64
    h.db.Model(&models.Post{}).Where("author_id = ?", post.AuthorID).Count(&postCount)

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{
        "post":              post,
        "author_post_count": postCount,
    })
}

// CreatePost persists a new post for the authenticated author. The feed
// cache is left alone; see indexCacheKey.
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
    userID, err := utils.GetUserIDFromContext(r.Context())
    if err != nil {
        http.Error(w, "Unauthorized", http.StatusUnauthorized)
        return
    }

    if err := parseForm(r); err != nil {
        http.Error(w, "Error parsing form", http.StatusBadRequest)
        return
    }

    text := strings.TrimSpace(r.FormValue("text"))
    if text == "" {
        writeValidationError(w, "text", "Text is required")
        return
    }

    post := models.Post{
        Text:     text,
        AuthorID: userID,
    }

    if slug := r.FormValue("group"); slug != "" {
        var group models.Group
        if err := h.db.Where("slug = ?", slug).First(&group).Error; err != nil {
            http.Error(w, "Group not found", http.StatusNotFound)
            return
        }
        post.GroupID = &group.ID
    }

    if r.MultipartForm != nil {
        file, header, err := r.FormFile("image")
        if err == nil {
            defer file.Close()
            imageURL, err := utils.SaveImage(file, header)
            if err != nil {
                http.Error(w, fmt.Sprintf("Error saving image: %v", err), http.StatusBadRequest)
                return
            }
            post.ImagePath = imageURL
        }
    }

    if err := h.db.Create(&post).Error; err != nil {
        if post.ImagePath != "" {
            utils.DeleteImage(post.ImagePath)
        }
        http.Error(w, "Error creating post", http.StatusInternalServerError)
        return
    }

    http.Redirect(w, r, utils.APIPrefix+"/posts", http.StatusSeeOther)
}

// UpdatePost mutates a post in place. Authenticated non-owners are sent to
// the post's read view instead; validation failures persist nothing.
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
    userID, err := utils.GetUserIDFromContext(r.Context())
    if err != nil {
        http.Error(w, "Unauthorized", http.StatusUnauthorized)
        return
    }

    vars := mux.Vars(r)
    postID, err := strconv.ParseUint(vars["id"], 10, 64)
    if err != nil {
        http.Error(w, "Invalid post ID", http.StatusBadRequest)
        return
    }

    var post models.Post
    if err := h.db.First(&post, postID).Error; err != nil {
        http.Error(w, "Post not found", http.StatusNotFound)
        return
    }

    readView := fmt.Sprintf("%s/posts/%d", utils.APIPrefix, post.ID)
    if !post.EditableBy(userID) {
        http.Redirect(w, r, readView, http.StatusFound)
        return
    }

    if err := parseForm(r); err != nil {
        http.Error(w, "Error parsing form", http.StatusBadRequest)
        return
    }

    text := strings.TrimSpace(r.FormValue("text"))
    if text == "" {
        writeValidationError(w, "text", "Text is required")
        return
    }
    post.Text = text

    // the edit form is authoritative for the group: a blank field ungroups
    // the post
    if slug := r.FormValue("group"); slug != "" {
        var group models.Group
        if err := h.db.Where("slug = ?", slug).First(&group).Error; err != nil {
            http.Error(w, "Group not found", http.StatusNotFound)
            return
        }
        post.GroupID = &group.ID
    } else {
        post.GroupID = nil
    }

    if r.MultipartForm != nil {
        file, header, err := r.FormFile("image")
        if err == nil {
            defer file.Close()
            imageURL, err := utils.SaveImage(file, header)
            if err != nil {
                http.Error(w, fmt.Sprintf("Error saving image: %v", err), http.StatusBadRequest)
                return
            }
            if post.ImagePath != "" {
                utils.DeleteImage(post.ImagePath)
            }
            post.ImagePath = imageURL
        }
    }

    if err := h.db.Save(&post).Error; err != nil {
        http.Error(w, "Error updating post", http.StatusInternalServerError)
        return
    }

    http.Redirect(w, r, readView, http.StatusSeeOther)
}

// DeletePost removes a post and its comments in one transaction.
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
    userID, err := utils.GetUserIDFromContext(r.Context())
    if err != nil {
        http.Error(w, "Unauthorized", http.StatusUnauthorized)
        return
    }

    vars := mux.Vars(r)
    postID, err := strconv.ParseUint(vars["id"], 10, 64)
    if err != nil {
        http.Error(w, "Invalid post ID", http.StatusBadRequest)
        return
    }

    var post models.Post
    if err := h.db.First(&post, postID).Error; err != nil {
        http.Error(w, "Post not found", http.StatusNotFound)
        return
    }

    if !post.EditableBy(userID) {
        http.Redirect(w, r, fmt.Sprintf("%s/posts/%d", utils.APIPrefix, post.ID), http.StatusFound)
        return
    }

    tx := h.db.Begin()

    if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
        tx.Rollback()
        http.Error(w, "Error deleting comments", http.StatusInternalServerError)
        return
    }

    if err := tx.Delete(&post).Error; err != nil {
        tx.Rollback()
        http.Error(w, "Error deleting post", http.StatusInternalServerError)
        return
    }

    if err := tx.Commit().Error; err != nil {
        http.Error(w, "Error deleting post", http.StatusInternalServerError)
        return
    }

    if post.ImagePath != "" {
        utils.DeleteImage(post.ImagePath)
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]string{
        "message": "Post deleted successfully",
    })
}

// AddComment attaches a comment to a post for the authenticated caller.
func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
    userID, err := utils.GetUserIDFromContext(r.Context())
    if err != nil {
        http.Error(w, "Unauthorized", http.StatusUnauthorized)
        return
    }

    vars := mux.Vars(r)
    postID, err := strconv.ParseUint(vars["id"], 10, 64)
    if err != nil {
        http.Error(w, "Invalid post ID", http.StatusBadRequest)
        return
    }

    var post models.Post
    if err := h.db.First(&post, postID).Error; err != nil {
        http.Error(w, "Post not found", http.StatusNotFound)
        return
    }

    text, err := commentText(r)
    if err != nil {
        http.Error(w, "Invalid request body", http.StatusBadRequest)
        return
    }
    if text == "" {
        writeValidationError(w, "text", "Text is required")
        return
    }

    comment := models.Comment{
        PostID:   post.ID,
        AuthorID: userID,
        Text:     text,
    }

    if err := h.db.Create(&comment).Error; err != nil {
        http.Error(w, "Error creating comment", http.StatusInternalServerError)
        return
    }

    http.Redirect(w, r, fmt.Sprintf("%s/posts/%d", utils.APIPrefix, post.ID), http.StatusSeeOther)
}

// GetComments retrieves comments for a post with pagination.
func (h *PostHandler) GetComments(w http.ResponseWriter, r *http.Request) {
    vars := mux.Vars(r)
    postID, err := strconv.ParseUint(vars["id"], 10, 64)
    if err != nil {
        http.Error(w, "Invalid post ID", http.StatusBadRequest)
        return
    }

    page := utils.PageParam(r)

    var comments []models.Comment
    query := h.db.Model(&models.Comment{}).Where("post_id = ?", postID).
        Preload("Author").Order("created_at DESC, id DESC")
    meta, err := utils.Paginate(query, page, &comments)
    if err != nil {
        http.Error(w, "Error retrieving comments", http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{
        "comments":    comments,
        "page":        meta.Page,
        "page_size":   meta.PageSize,
        "total":       meta.Total,
        "total_pages": meta.TotalPages,
    })
}

// parseForm accepts either multipart (image uploads) or urlencoded bodies.
func parseForm(r *http.Request) error {
    if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
        return r.ParseMultipartForm(20 << 20)
    }
    return r.ParseForm()
}

func commentText(r *http.Request) (string, error) {
    if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
        var body struct {
            Text string `json:"text"`
        }
        if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
            return "", err
        }
        return strings.TrimSpace(body.Text), nil
    }
    if err := parseForm(r); err != nil {
        return "", err
    }
    return strings.TrimSpace(r.FormValue("text")), nil
}

func writeValidationError(w http.ResponseWriter, field, message string) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(http.StatusBadRequest)
    json.NewEncoder(w).Encode(map[string]interface{}{
        "error":  message,
        "field":  field,
        "errors": map[string]string{field: message},
    })
}
