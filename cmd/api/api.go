package api

import (
	"log"
	"net/http"
	"os"

	"github.com/asiedu-dev/inkwell-server/cmd/utils"
	"github.com/asiedu-dev/inkwell-server/service/follows"
	"github.com/asiedu-dev/inkwell-server/service/groups"
	"github.com/asiedu-dev/inkwell-server/service/posts"
	"github.com/asiedu-dev/inkwell-server/service/users"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type APIServer struct {
	address string
	db      *gorm.DB
	cache   *utils.FeedCache
}

func NewApiServer(address string, db *gorm.DB) *APIServer {
	return &APIServer{
		address: address,
		db:      db,
		cache:   utils.NewFeedCache(),
	}
}

// Router assembles the full route tree. Split out from Run so tests can
// drive it through httptest.
func (s *APIServer) Router() http.Handler {
	router := mux.NewRouter()
	subrouter := router.PathPrefix(utils.APIPrefix).Subrouter()

	userHandler := users.NewHandler(s.db)
	userHandler.RegisterRoutes(subrouter)

	postHandler := posts.NewPostHandler(s.db, s.cache)
	postHandler.RegisterRoutes(subrouter)

	groupHandler := groups.NewGroupHandler(s.db)
	groupHandler.RegisterRoutes(subrouter)

	followHandler := follows.NewFollowHandler(s.db)
	followHandler.RegisterRoutes(subrouter)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Admin-Token"}),
	)

	return handlers.LoggingHandler(os.Stdout, cors(router))
}

func (s *APIServer) Run() error {
	log.Println("Server running at", s.address)
	return http.ListenAndServe(s.address, s.Router())
}
