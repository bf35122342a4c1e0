package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/tenderwizard/backend/config"
	"github.com/tenderwizard/backend/internal/handler"
)

func Setup(
	cfg *config.Config,
	dataHandler *handler.DataHandler,
	templateHandler *handler.TemplateHandler,
	mappingHandler *handler.MappingHandler,
	wizardHandler *handler.WizardHandler,
	configHandler *handler.APIConfigHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	origins := cfg.CORS.Origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to TenderWizard API"})
	})

	api := r.Group("/api/v1")
	{
		dataHandler.RegisterRoutes(api)
		templateHandler.RegisterRoutes(api)
		mappingHandler.RegisterRoutes(api)
		wizardHandler.RegisterRoutes(api)
		configHandler.RegisterRoutes(api)
	}

	return r
}
