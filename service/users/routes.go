package users

import (
    "encoding/json"
    "net/http"
    "os"
    "path/filepath"
    "strconv"
    "strings"
    "time"

    "github.com/asiedu-dev/inkwell-server/cmd/models"
    "github.com/asiedu-dev/inkwell-server/cmd/utils"
    "github.com/golang-jwt/jwt/v4"
    "github.com/gorilla/mux"
    "golang.org/x/crypto/bcrypt"
    "gorm.io/gorm"
)

type Handler struct {
    db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
    return &Handler{db: db}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
    router.HandleFunc("/register", h.HandleRegister).Methods("POST")
    router.HandleFunc("/login", h.HandleLogin).Methods("POST")
    router.HandleFunc("/users/{username}", h.GetProfile).Methods("GET")
    router.HandleFunc("/images/{filename}", h.ServeImage).Methods("GET")
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
    var registerRequest struct {
        Username string `json:"username"`
        Email    string `json:"email"`
        Password string `json:"password"`
        FullName string `json:"full_name"`
        Bio      string `json:"bio"`
    }

    if err := json.NewDecoder(r.Body).Decode(&registerRequest); err != nil {
        http.Error(w, "Invalid request body", http.StatusBadRequest)
        return
    }

    username := strings.TrimSpace(registerRequest.Username)
    if username == "" || registerRequest.Email == "" || registerRequest.Password == "" {
        http.Error(w, "Username, email and password are required", http.StatusBadRequest)
        return
    }

    var existing models.User
    if err := h.db.Where("username = ? OR email = ?", username, registerRequest.Email).
        First(&existing).Error; err == nil {
        http.Error(w, "Username or email already taken", http.StatusConflict)
        return
    }

    passwordHash, err := bcrypt.GenerateFromPassword([]byte(registerRequest.Password), bcrypt.DefaultCost)
    if err != nil {
        http.Error(w, "Error creating user", http.StatusInternalServerError)
        return
    }

    user := models.User{
        Username:     username,
        Email:        registerRequest.Email,
        PasswordHash: string(passwordHash),
        FullName:     registerRequest.FullName,
        Bio:          registerRequest.Bio,
    }

    if err := h.db.Create(&user).Error; err != nil {
        http.Error(w, "Error creating user", http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(http.StatusCreated)
    json.NewEncoder(w).Encode(map[string]interface{}{
        "message":  "Registration successful",
        "user_id":  user.ID,
        "username": user.Username,
    })
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
    var loginRequest struct {
        Username string `json:"username"`
        Password string `json:"password"`
    }

    if err := json.NewDecoder(r.Body).Decode(&loginRequest); err != nil {
        http.Error(w, "Invalid request body", http.StatusBadRequest)
        return
    }

    var user models.User
    if err := h.db.Where("username = ?", loginRequest.Username).First(&user).Error; err != nil {
        http.Error(w, "Invalid credentials", http.StatusUnauthorized)
        return
    }

    if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(loginRequest.Password)); err != nil {
        http.Error(w, "Invalid credentials", http.StatusUnauthorized)
        return
    }

    accessToken, err := GenerateJWT(user.ID, 24*time.Hour)
    if err != nil {
        http.Error(w, "Error generating access token", http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{
        "message":      "Login successful",
        "access_token": accessToken,
        "user_id":      user.ID,
        "username":     user.Username,
    })
}

// GetProfile returns the author's paginated posts plus, for an
// authenticated caller, whether they follow this author.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
    vars := mux.Vars(r)

    var author models.User
    if err := h.db.Where("username = ?", vars["username"]).First(&author).Error; err != nil {
        http.Error(w, "User not found", http.StatusNotFound)
        return
    }

    page := utils.PageParam(r)

    var posts []models.Post
    query := h.db.Model(&models.Post{}).Where("author_id = ?", author.ID).
        Preload("Group").Order("created_at DESC, id DESC")
    meta, err := utils.Paginate(query, page, &posts)
    if err != nil {
        http.Error(w, "Error retrieving posts", http.StatusInternalServerError)
        return
    }

    following := false
    if callerID := utils.CurrentUserID(r); callerID != 0 {
        var count int64
        h.db.Model(&models.Follow{}).
            Where("user_id = ? AND author_id = ?", callerID, author.ID).Count(&count)
        following = count > 0
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{
        "author":      author,
        "posts":       posts,
        "post_count":  meta.Total,
        "following":   following,
        "page":        meta.Page,
        "page_size":   meta.PageSize,
        "total_pages": meta.TotalPages,
    })
}

// ServeImage serves a stored post image by filename.
func (h *Handler) ServeImage(w http.ResponseWriter, r *http.Request) {
    vars := mux.Vars(r)
    filename := vars["filename"]

    if containsDotDot(filename) {
        http.Error(w, "Invalid path", http.StatusBadRequest)
        return
    }

    imagePath := filepath.Join(utils.ImagePath(), filepath.Clean(filename))

    if _, err := os.Stat(imagePath); os.IsNotExist(err) {
        http.Error(w, "Image not found", http.StatusNotFound)
        return
    }

    w.Header().Set("Cache-Control", "public, max-age=3600")
    w.Header().Set("Content-Type", getContentType(imagePath))

    http.ServeFile(w, r, imagePath)
}

func containsDotDot(v string) bool {
    for _, part := range strings.Split(v, "/") {
        if part == ".." {
            return true
        }
    }
    return false
}

func getContentType(filename string) string {
    ext := filepath.Ext(filename)
    switch ext {
    case ".jpg", ".jpeg":
        return "image/jpeg"
    case ".png":
        return "image/png"
    case ".gif":
        return "image/gif"
    default:
        return "application/octet-stream"
    }
}

// GenerateJWT issues an access token whose subject is the user ID.
func GenerateJWT(userID uint, ttl time.Duration) (string, error) {
    claims := &jwt.RegisteredClaims{
        Subject:   strconv.FormatUint(uint64(userID), 10),
        ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
    }
    token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    return token.SignedString([]byte(os.Getenv("SECRET_KEY")))
}
